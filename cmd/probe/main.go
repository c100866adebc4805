package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/gorilla/websocket"
	flag "github.com/spf13/pflag"
	"github.com/valyala/fastjson"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/mainutil"
)

var Options struct {
	Addr  string
	Count int `traits:"ge=0"`
	Help  bool
}

var flags flag.FlagSet

func init() {
	flags.StringVarP(&Options.Addr, "addr", "a", "127.0.0.1:60400", "aggregator address")
	flags.IntVarP(&Options.Count, "count", "n", 0, "stop after this many events (0 = run until interrupted)")
	flags.BoolVarP(&Options.Help, "help", "", false, "this help message")
	flags.SetInterspersed(false)
	flags.SetOutput(io.Discard)
}

func run() (err error, ret int) {
	if _, err := mainutil.ParseArgs(&flags); err != nil {
		if err == flag.ErrHelp {
			Options.Help = true
		} else {
			return err, 1
		}
	}
	if Options.Help {
		stdout.Print(flags.FlagUsages())
		return nil, 1
	}
	if err := mainutil.Validate(Options); err != nil {
		stderr.Print(err)
		return nil, 1
	}

	url := Options.Addr
	if !strings.Contains(url, "://") {
		url = "ws://" + url
	}
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return err, 1
	}
	defer ws.Close()

	// The first frame must be the connected handshake with the multiplier.
	var parser fastjson.Parser
	_, msg, err := ws.ReadMessage()
	if err != nil {
		return err, 1
	}
	v, err := parser.ParseBytes(msg)
	if err != nil {
		return err, 1
	}
	if !v.Exists("connected") {
		return fmt.Errorf("expected connected handshake, got: %s", msg), 1
	}
	stderr.Printf("Connected, multiplier %d", v.GetInt64("connected", "multiplier"))

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	go func() {
		<-interrupted
		ws.Close()
	}()

	count := Options.Count
	if count == 0 {
		count = -1 // spinner
	}
	bar := mainutil.NewProgressBar(count)
	tally := map[string]int{}
	for n := 0; Options.Count == 0 || n < Options.Count; n++ {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			break
		}
		v, err := parser.ParseBytes(msg)
		if err != nil {
			stderr.Println("Bad frame:", err)
			continue
		}
		obj, err := v.Object()
		if err != nil || obj.Len() != 1 {
			stderr.Println("Not an event envelope:", string(msg))
			continue
		}
		obj.Visit(func(key []byte, _ *fastjson.Value) {
			tally[string(key)]++
		})
		bar.Add(1)
	}
	bar.Finish()

	kinds := make([]string, 0, len(tally))
	for kind := range tally {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		stdout.Printf("%-20s %d", kind, tally[kind])
	}
	return nil, 0
}

func main() {
	err, ret := run()
	if err != nil {
		stderr.Println("Error:", err)
	}
	if ret != 0 {
		os.Exit(ret)
	}
}
