// This app is a thin demo frontend over the kinetic client library: it
// dials one drive, issues a single operation named on the command line,
// and prints the resulting status.

package main

import (
	"encoding/hex"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abioy/kinetic-go"
	"github.com/Abioy/kinetic-go/internal/config"
)

func main() {
	host := flag.String("host", "", "Drive host")
	port := flag.Int("port", 0, "Drive port (defaults to 8123, or 8443 with -admin)")
	admin := flag.Bool("admin", false, "Dial the TLS admin port instead of the data port")
	identity := flag.Int64("identity", 1, "ACL identity")
	clusterVersion := flag.Int64("cluster-version", 0, "Expected cluster version")
	hmacKeyHex := flag.String("hmac-key", "", "HMAC key, hex-encoded")

	op := flag.String("op", "noop", "Operation to run: noop, put, get, delete")
	key := flag.String("key", "", "Key for put/get/delete")
	value := flag.String("value", "", "Value for put")

	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatalf("failed to load client config: %v", err)
	}

	hmacKey, err := hex.DecodeString(*hmacKeyHex)
	if err != nil {
		log.Fatalf("invalid -hmac-key: %v", err)
	}

	client := kinetic.Init(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		client.Shutdown()
		os.Exit(1)
	}()

	sess, err := client.CreateSession(kinetic.SessionConfig{
		Host:           *host,
		Port:           *port,
		ClusterVersion: *clusterVersion,
		Identity:       *identity,
		HMACKey:        hmacKey,
		UseTLS:         *admin,
	})
	if err != nil {
		log.Fatalf("create session: %v", err)
	}
	defer client.Shutdown()
	defer sess.DestroySession()

	var st kinetic.Status
	switch *op {
	case "noop":
		st = sess.NoOp(nil)
	case "put":
		st = sess.Put(&kinetic.Entry{Key: []byte(*key), Value: []byte(*value)}, nil)
	case "get":
		entry := &kinetic.Entry{Key: []byte(*key)}
		st = sess.Get(entry, nil)
		if st == kinetic.SUCCESS {
			log.Printf("value: %s", entry.Value)
		}
	case "delete":
		st = sess.Delete(&kinetic.Entry{Key: []byte(*key)}, nil)
	default:
		log.Fatalf("unknown -op %q", *op)
	}

	log.Printf("%s: %s", *op, st)
}
