// Command actorctl calls natives on a running actord through the bridge.
//
//	actorctl list
//	actorctl call CreateActor 7 '[0,0,3]' 90
//	actorctl call SetActorName 65536 '"Dealer"'
//
// Every call argument is a JSON value; a bare word that is not valid JSON is
// sent as a string.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"

	"actornet/bridge"
)

func main() {
	addr := flag.StringP("addr", "a", "127.0.0.1:7778", "bridge address")
	timeout := flag.Duration("timeout", 5*time.Second, "per call timeout")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: actorctl [flags] list | call <native> [json args...]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*addr, *timeout, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "actorctl:", err)
		os.Exit(1)
	}
}

func run(addr string, timeout time.Duration, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer cc.Close()
	c := bridge.NewClient(cc)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch args[0] {
	case "list":
		names, err := c.List(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	case "call":
		if len(args) < 2 {
			return fmt.Errorf("call needs a native name")
		}
		v, err := c.Call(ctx, args[1], parseArgs(args[2:])...)
		if err != nil {
			return err
		}
		out, err := protojson.MarshalOptions{Multiline: true}.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func parseArgs(raw []string) []any {
	out := make([]any, 0, len(raw))
	for _, r := range raw {
		var v any
		if err := json.Unmarshal([]byte(r), &v); err != nil {
			v = r
		}
		out = append(out, v)
	}
	return out
}
