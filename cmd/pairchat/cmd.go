package main

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
	flags "github.com/jessevdk/go-flags"
	"github.com/shazow/rateio"

	"github.com/normanw/pairchat"
	"github.com/normanw/pairchat/rendezvous"
	"github.com/normanw/pairchat/tcpd"
	"github.com/normanw/pairchat/termio"
	"github.com/normanw/pairchat/wsd"
)

// Version of the binary, assigned during build.
var Version string = "dev"

// Options contains the flag options
type Options struct {
	Verbose        []bool `short:"v" long:"verbose" description:"Show verbose logging."`
	Version        bool   `long:"version" description:"Print version and exit."`
	Bind           string `long:"bind" description:"Host and port to listen on for raw TCP clients." default:"0.0.0.0:9999"`
	BindWS         string `long:"bind-ws" description:"Host and port to listen on for websocket clients. Disabled when empty."`
	Framing        string `long:"framing" description:"Line framing for raw TCP clients." choice:"echo" choice:"bulk" default:"echo"`
	PairingTimeout int    `long:"pairing-timeout" description:"Seconds a room waits for a second party." default:"600"`
	SweepInterval  int    `long:"sweep-interval" description:"Seconds between abandoned-room sweeps." default:"30"`
	IdleTimeout    int    `long:"idle-timeout" description:"Relay read deadline, in seconds." default:"1"`
	Motd           string `long:"motd" description:"Optional Message of the Day file."`
}

var logLevels = []log.Level{
	log.Warning,
	log.Info,
	log.Debug,
}

func fail(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}

func main() {
	options := Options{}
	parser := flags.NewParser(&options, flags.Default)
	p, err := parser.Parse()
	if err != nil {
		if p == nil {
			fmt.Print(err)
		}
		return
	}

	if options.Version {
		fmt.Println(Version)
		return
	}

	// Figure out the log level
	numVerbose := len(options.Verbose)
	if numVerbose > len(logLevels) {
		numVerbose = len(logLevels) - 1
	}

	logLevel := logLevels[numVerbose]
	logger := golog.New(os.Stderr, logLevel)
	pairchat.SetLogger(logger)

	if logLevel == log.Debug {
		// Enable logging from submodules
		rendezvous.SetLogger(os.Stderr)
		tcpd.SetLogger(os.Stderr)
		wsd.SetLogger(os.Stderr)
	}

	registry := rendezvous.NewRegistry()
	host := pairchat.NewHost(registry)
	host.PairingTimeout = time.Duration(options.PairingTimeout) * time.Second
	host.SweepInterval = time.Duration(options.SweepInterval) * time.Second
	host.IdleTimeout = time.Duration(options.IdleTimeout) * time.Second

	if options.Motd != "" {
		motd, err := ioutil.ReadFile(options.Motd)
		if err != nil {
			fail(2, "Failed to load MOTD file: %v\n", err)
		}
		motdString := string(motd)
		// hack to normalize line endings into \r\n
		motdString = strings.Replace(motdString, "\r\n", "\n", -1)
		motdString = strings.Replace(motdString, "\n", "\r\n", -1)
		host.SetMotd(strings.TrimRight(motdString, "\r\n"))
	}

	l, err := tcpd.Listen(options.Bind)
	if err != nil {
		fail(3, "Failed to listen on socket: %v\n", err)
	}
	defer l.Close()
	if options.Framing == "bulk" {
		l.Framing = tcpd.FramingBulk
	}
	l.RateLimit = func() rateio.Limiter {
		// Well beyond human typing pace; runaway clients get disconnected.
		return rateio.NewSimpleLimiter(64*1024, time.Second)
	}

	fmt.Printf("Listening for clients on %v\n", l.Addr().String())

	sources := []<-chan termio.Channel{l.ServeChannel()}

	if options.BindWS != "" {
		ws := wsd.NewListener()
		go func() {
			if err := http.ListenAndServe(options.BindWS, ws); err != nil {
				fail(4, "Failed to listen on websocket socket: %v\n", err)
			}
		}()
		fmt.Printf("Listening for websocket clients on %v\n", options.BindWS)
		sources = append(sources, ws.ServeChannel())
	}

	go host.Serve(sources...)

	// Construct interrupt handler
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	<-sig // Wait for ^C signal
	fmt.Fprintln(os.Stderr, "Interrupt signal detected, shutting down.")
}
