package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/foodex/config"
	"github.com/niksmo/foodex/internal/adapter"
	"github.com/niksmo/foodex/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	partitions        = 3
	replicationFactor = 3
	delete            = "delete"
	compact           = "compact"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	if !cfg.Broker.Enabled() {
		printFail(errors.New("no seed brokers configured"))
		return
	}

	cl := createClient(cfg.Broker)
	defer cl.Close()

	group := cfg.Broker.Consumers.PopularityGroup

	printStart(cfg)
	defer printComplete(time.Now())

	// regular topics
	err := makeTopics(
		sigCtx, cl, delete,
		cfg.Broker.Topics.CartEvents,
		toLoopback(group),
	)
	if err != nil {
		printFail(err)
		return
	}

	// group table topics
	err = makeTopics(
		sigCtx, cl, compact,
		toGroupTable(group),
	)
	if err != nil {
		printFail(err)
		return
	}
}

func createClient(b config.Broker) *kadm.Client {
	opts := []kgo.Opt{kgo.SeedBrokers(b.SeedBrokers...)}

	if b.TLS.Enabled() {
		tlsConfig, err := adapter.MakeTLSConfig(b.TLS.CA, b.TLS.Cert, b.TLS.Key)
		if err != nil {
			panic(err)
		}
		opts = append(opts, kgo.DialTLSConfig(tlsConfig))
	}

	cl, err := kadm.NewOptClient(opts...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func makeTopics(
	ctx context.Context, cl *kadm.Client, cleanupPolicy string, topics ...string,
) error {
	var (
		minISR = "1"
	)

	config := map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
	}

	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		config,
		topics...,
	)

	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		err := res.Err
		if err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}

	return errors.Join(errs...)
}

func printStart(cfg config.Config) {
	group := cfg.Broker.Consumers.PopularityGroup
	fmt.Printf(`initializing topics...
	- %q
	- %q
	- %q

`,
		cfg.Broker.Topics.CartEvents,
		toLoopback(group),
		toGroupTable(group),
	)
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}

func toGroupTable(group string) string {
	return string(goka.GroupTable(goka.Group(group)))
}

// toLoopback names the topic goka creates for the group loopback edge.
func toLoopback(group string) string {
	return string(goka.Group(group)) + "-loop"
}
