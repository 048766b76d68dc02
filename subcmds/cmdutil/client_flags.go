// Copyright (c) 2023 BVK Chaitanya

package cmdutil

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/bvk/stockwatch/client"
	"github.com/bvk/stockwatch/subcmds/defaults"
)

type ClientFlags struct {
	port        int
	Host        string
	APIPath     string
	HTTPTimeout time.Duration

	session string
}

func (cf *ClientFlags) SetFlags(fset *flag.FlagSet) {
	fset.IntVar(&cf.port, "connect-port", 0, "TCP port number for the api endpoint (default=10000 or STOCKWATCH_SERVER_PORT value)")
	fset.StringVar(&cf.Host, "connect-host", "127.0.0.1", "Hostname or IP address for the api endpoint")
	fset.StringVar(&cf.APIPath, "api-path", "/", "base path to the api handler")
	fset.DurationVar(&cf.HTTPTimeout, "http-timeout", 30*time.Second, "http client timeout")
	fset.StringVar(&cf.session, "session", "", "session token from the sign-in command (default=STOCKWATCH_SESSION value)")
}

func (cf *ClientFlags) Port() int {
	if cf.port != 0 {
		return cf.port
	}
	return defaults.ServerPort()
}

func (cf *ClientFlags) AddressURL() *url.URL {
	return &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(cf.Host, fmt.Sprintf("%d", cf.Port())),
		Path:   cf.APIPath,
	}
}

func (cf *ClientFlags) HttpClient() *http.Client {
	return &http.Client{
		Timeout: cf.HTTPTimeout,
	}
}

// Session returns the session token from the command-line or the environment.
func (cf *ClientFlags) Session() string {
	if len(cf.session) != 0 {
		return cf.session
	}
	return defaults.Session()
}

// Client returns an api client that uses the current session, if any.
func (cf *ClientFlags) Client() *client.Client {
	return client.New(cf.AddressURL(), cf.HttpClient(), cf.Session())
}
