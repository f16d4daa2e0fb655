package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rkv/riakhttp"
)

func main() {
	configPath := flag.String("config", "", "YAML cluster configuration file")
	nodeList := flag.String("nodes", "localhost:8098", "comma-separated host:port list")
	useTLS := flag.Bool("tls", false, "use https for nodes given with -nodes")
	flag.Parse()

	client, err := buildClient(*configPath, *nodeList, *useTLS)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Println("Riak HTTP CLI")
	fmt.Println("=============")
	fmt.Println("Commands: get, put, del, keys, buckets, props, incr, counter, ping, stats, help, quit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(parts) == 0 {
			continue
		}

		ctx := context.Background()

		switch strings.ToLower(parts[0]) {
		case "get":
			if len(parts) != 3 {
				fmt.Println("Usage: get <bucket> <key>")
				continue
			}
			handleGet(ctx, client, parts[1], parts[2])

		case "put":
			if len(parts) != 4 {
				fmt.Println("Usage: put <bucket> <key> <value>")
				continue
			}
			handlePut(ctx, client, parts[1], parts[2], parts[3])

		case "del":
			if len(parts) != 3 {
				fmt.Println("Usage: del <bucket> <key>")
				continue
			}
			if err := client.DeleteObject(ctx, "", parts[1], parts[2]); err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println("OK")
			}

		case "keys":
			if len(parts) != 2 {
				fmt.Println("Usage: keys <bucket>")
				continue
			}
			handleList(client.ListKeys(ctx, "", parts[1]))

		case "buckets":
			handleList(client.ListBuckets(ctx, ""))

		case "props":
			if len(parts) != 2 {
				fmt.Println("Usage: props <bucket>")
				continue
			}
			handleProps(ctx, client, parts[1])

		case "incr":
			if len(parts) != 3 && len(parts) != 4 {
				fmt.Println("Usage: incr <bucket> <key> [delta]")
				continue
			}
			handleIncr(ctx, client, parts)

		case "counter":
			if len(parts) != 3 {
				fmt.Println("Usage: counter <bucket> <key>")
				continue
			}
			value, err := client.FetchCounter(ctx, "", parts[1], parts[2])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println(value)
			}

		case "ping":
			if err := client.Ping(ctx); err != nil {
				fmt.Printf("Ping failed: %v\n", err)
			} else {
				fmt.Println("OK")
			}

		case "stats":
			handleStats(client)

		case "help":
			printHelp()

		case "quit", "exit":
			return

		default:
			fmt.Printf("Unknown command: %s (try help)\n", parts[0])
		}
	}
}

func handleGet(ctx context.Context, client *riakhttp.Client, bucket, key string) {
	obj, err := client.FetchObject(ctx, "", bucket, key)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if !obj.Found {
		fmt.Println("Not found")
		return
	}
	fmt.Printf("%s (%s)\n", obj.Value, obj.ContentType)
}

func handlePut(ctx context.Context, client *riakhttp.Client, bucket, key, value string) {
	obj := riakhttp.Object{
		Bucket:      bucket,
		Key:         key,
		Value:       []byte(value),
		ContentType: "text/plain",
	}
	if err := client.StoreObject(ctx, obj); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func handleList(items []string, err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(items) == 0 {
		fmt.Println("(empty)")
		return
	}
	for _, item := range items {
		fmt.Println(item)
	}
}

func handleProps(ctx context.Context, client *riakhttp.Client, bucket string) {
	props, err := client.FetchBucketProps(ctx, "", bucket)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for name, value := range props {
		fmt.Printf("%s: %v\n", name, value)
	}
}

func handleIncr(ctx context.Context, client *riakhttp.Client, parts []string) {
	delta := int64(1)
	if len(parts) == 4 {
		if _, err := fmt.Sscanf(parts[3], "%d", &delta); err != nil {
			fmt.Printf("Invalid delta: %v\n", err)
			return
		}
	}
	if err := client.IncrementCounter(ctx, "", parts[1], parts[2], delta); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func handleStats(client *riakhttp.Client) {
	stats := client.Stats()
	fmt.Printf("Fetches:    %d (hits: %d)\n", stats.Fetches, stats.FetchHits)
	fmt.Printf("Stores:     %d\n", stats.Stores)
	fmt.Printf("Deletes:    %d\n", stats.Deletes)
	fmt.Printf("Lists:      %d\n", stats.Lists)
	fmt.Printf("Props ops:  %d\n", stats.PropsOps)
	fmt.Printf("CRDT ops:   %d\n", stats.DataTypeOps)
	fmt.Printf("Errors:     %d\n", stats.Errors)

	for _, nps := range client.AllNodeStats() {
		fmt.Printf("\nNode %s:\n", nps.Addr)
		fmt.Printf("  connections: %d total, %d idle, %d active\n",
			nps.PoolStats.TotalConns, nps.PoolStats.IdleConns, nps.PoolStats.ActiveConns)
		fmt.Printf("  acquires:    %d\n", nps.PoolStats.AcquireCount)
		fmt.Printf("  breaker:     %s\n", nps.CircuitBreakerState)
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  get <bucket> <key>          - Fetch an object")
	fmt.Println("  put <bucket> <key> <value>  - Store an object")
	fmt.Println("  del <bucket> <key>          - Delete an object")
	fmt.Println("  keys <bucket>               - List keys in a bucket")
	fmt.Println("  buckets                     - List buckets")
	fmt.Println("  props <bucket>              - Show bucket properties")
	fmt.Println("  incr <bucket> <key> [n]     - Increment a counter")
	fmt.Println("  counter <bucket> <key>      - Read a counter")
	fmt.Println("  ping                        - Check all nodes")
	fmt.Println("  stats                       - Show client statistics")
	fmt.Println("  quit                        - Exit")
}
