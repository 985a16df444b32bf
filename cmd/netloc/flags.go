package main

import (
	"flag"
	"io"
)

// options holds the parsed command line
type options struct {
	configPath  string
	showVersion bool
	overrides   map[string]any
}

// flagKeys maps flags that override a config key to that key
var flagKeys = map[string]string{
	"url":                    "resolver.url",
	"delay":                  "delay",
	"max-body-size":          "resolver.max_body_size",
	"requested-address-type": "resolver.address_family",
	"discord-webhook-url":    "notify.discord.webhook_url",
	"http-request-url":       "notify.http.url",
}

// parseFlags parses args. Only flags that were set end up in overrides,
// so unset flags never shadow env or file values.
func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("netloc", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &options{overrides: make(map[string]any)}
	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")

	fs.String("url", "", "URL returning the public IP address as plain text")
	fs.Duration("delay", 0, "Delay between reconciliation cycles")
	fs.Int64("max-body-size", 0, "Maximum resolver response size in bytes")
	fs.String("requested-address-type", "", "Address family to resolve over: any, ipv4, ipv6")
	fs.String("discord-webhook-url", "", "Discord webhook URL")
	fs.String("http-request-url", "", "URL to POST the IP address to")
	debug := fs.Bool("debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			opts.overrides[key] = f.Value.(flag.Getter).Get()
		}
	})
	if *debug {
		opts.overrides["log.level"] = "debug"
	}

	return opts, nil
}
