package kinetic_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abioy/kinetic-go/internal/status"
	kinetic "github.com/Abioy/kinetic-go"
	"github.com/Abioy/kinetic-go/kinetictest"
)

const testHMACKey = "asdfasdf"

func newTestSession(t *testing.T) (*kinetic.Client, *kinetic.Session) {
	t.Helper()
	drive, err := kinetictest.Start([]byte(testHMACKey))
	require.NoError(t, err)
	t.Cleanup(func() { drive.Close() })

	host, port := drive.Addr()
	client := kinetic.Init(nil)
	t.Cleanup(func() { client.Shutdown() })

	sess, err := client.CreateSession(kinetic.SessionConfig{
		Host:           host,
		Port:           port,
		ClusterVersion: 1,
		Identity:       1,
		HMACKey:        []byte(testHMACKey),
	})
	require.NoError(t, err)
	t.Cleanup(func() { sess.DestroySession() })
	return client, sess
}

func TestCreateSessionRejectsEmptyHost(t *testing.T) {
	client := kinetic.Init(nil)
	defer client.Shutdown()

	_, err := client.CreateSession(kinetic.SessionConfig{HMACKey: []byte("x")})
	require.Error(t, err)

	var kerr *kinetic.Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, kinetic.HOST_EMPTY, kerr.Status)
}

func TestCreateSessionRejectsMissingHMACKey(t *testing.T) {
	client := kinetic.Init(nil)
	defer client.Shutdown()

	_, err := client.CreateSession(kinetic.SessionConfig{Host: "127.0.0.1", Port: 1})
	require.Error(t, err)

	var kerr *kinetic.Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, kinetic.HMAC_REQUIRED, kerr.Status)
}

func TestNoOpRoundTrip(t *testing.T) {
	_, sess := newTestSession(t)
	got := sess.NoOp(nil)
	assert.Equal(t, kinetic.SUCCESS, got)
}

func TestPutThenGetRoundTrip(t *testing.T) {
	_, sess := newTestSession(t)

	entry := &kinetic.Entry{Key: []byte("k1"), Value: []byte("hello"), Tag: []byte("tag1")}
	st := sess.Put(entry, nil)
	require.Equal(t, kinetic.SUCCESS, st)

	got := &kinetic.Entry{Key: []byte("k1")}
	st = sess.Get(got, nil)
	require.Equal(t, kinetic.SUCCESS, st)
	assert.Equal(t, []byte("hello"), got.Value)
	assert.Equal(t, []byte("tag1"), got.Tag)
}

func TestGetMetadataOnlySkipsValue(t *testing.T) {
	_, sess := newTestSession(t)

	entry := &kinetic.Entry{Key: []byte("k2"), Value: []byte("payload")}
	require.Equal(t, kinetic.SUCCESS, sess.Put(entry, nil))

	got := &kinetic.Entry{Key: []byte("k2"), MetadataOnly: true}
	require.Equal(t, kinetic.SUCCESS, sess.Get(got, nil))
	assert.Nil(t, got.Value)
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	_, sess := newTestSession(t)

	got := &kinetic.Entry{Key: []byte("does-not-exist")}
	st := sess.Get(got, nil)
	assert.Equal(t, kinetic.NOT_FOUND, st)
}

func TestDeleteRemovesEntry(t *testing.T) {
	_, sess := newTestSession(t)

	entry := &kinetic.Entry{Key: []byte("k3"), Value: []byte("v")}
	require.Equal(t, kinetic.SUCCESS, sess.Put(entry, nil))
	require.Equal(t, kinetic.SUCCESS, sess.Delete(entry, nil))

	got := &kinetic.Entry{Key: []byte("k3")}
	assert.Equal(t, kinetic.NOT_FOUND, sess.Get(got, nil))
}

func TestPutMissingKeyReturnsSynchronousError(t *testing.T) {
	_, sess := newTestSession(t)
	st := sess.Put(&kinetic.Entry{}, nil)
	assert.Equal(t, kinetic.MISSING_KEY, st)
}

func TestGetKeyRangeFillsByteBufferArray(t *testing.T) {
	_, sess := newTestSession(t)

	for _, k := range []string{"a", "b", "c"} {
		require.Equal(t, kinetic.SUCCESS, sess.Put(&kinetic.Entry{Key: []byte(k), Value: []byte("v")}, nil))
	}

	out := kinetic.NewByteBufferArray(10, 16)
	kr := &kinetic.KeyRange{StartKey: []byte("a"), StartKeyInclusive: true, EndKey: []byte("z"), EndKeyInclusive: true}
	st := sess.GetKeyRange(kr, out, nil)
	require.Equal(t, kinetic.SUCCESS, st)
	assert.Equal(t, 3, out.Used())
}

func TestAdminOperationDeniedOnDataPort(t *testing.T) {
	_, sess := newTestSession(t)
	st := sess.SetErasePin([]byte("old"), []byte("new"), nil)
	assert.Equal(t, kinetic.NOT_AUTHORIZED, st)
}

func TestAsyncClosureInvokedForConcurrentPuts(t *testing.T) {
	_, sess := newTestSession(t)

	const n = 5
	var wg sync.WaitGroup
	wg.Add(n)
	results := make(chan status.Status, n)

	for i := 0; i < n; i++ {
		entry := &kinetic.Entry{Key: []byte{byte('a' + i)}, Value: []byte("v")}
		pending := sess.Put(entry, func(st status.Status, _ any) {
			defer wg.Done()
			results <- st
		})
		require.Equal(t, kinetic.SUCCESS_PENDING, pending)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for concurrent Puts to complete")
	}
	close(results)

	for st := range results {
		assert.Equal(t, kinetic.SUCCESS, st)
	}
}

func TestDestroySessionFailsSubsequentCalls(t *testing.T) {
	_, sess := newTestSession(t)
	require.Equal(t, kinetic.SUCCESS, sess.DestroySession())
	assert.Equal(t, kinetic.SESSION_INVALID, sess.NoOp(nil))
}
