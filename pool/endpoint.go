/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package pool

import (
	"net/url"
	"strconv"
	"strings"

	liberr "github.com/nabbar/go-s3crt/errors"
)

// EndpointKey identifies one (scheme, host, port) triple. Two keys compare
// equal iff all three fields compare equal; Host is case-folded and Port is
// filled with the scheme default when absent.
type EndpointKey struct {
	Scheme string
	Host   string
	Port   uint16
}

func defaultPort(scheme string) uint16 {
	switch scheme {
	case "https":
		return 443
	default:
		return 80
	}
}

// ParseEndpoint parses "scheme://host[:port]" into an EndpointKey. scheme is
// case-insensitive; any scheme other than http/https is rejected, as is an
// empty host.
func ParseEndpoint(raw string) (EndpointKey, liberr.Error) {
	if strings.TrimSpace(raw) == "" {
		return EndpointKey{}, ErrorArgument.Error(nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return EndpointKey{}, ErrorArgument.Error(err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return EndpointKey{}, ErrorArgument.Error(nil)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return EndpointKey{}, ErrorArgument.Error(nil)
	}

	port := defaultPort(scheme)
	if p := u.Port(); p != "" {
		n, e := strconv.ParseUint(p, 10, 16)
		if e != nil {
			return EndpointKey{}, ErrorArgument.Error(e)
		}
		port = uint16(n)
	}

	return EndpointKey{Scheme: scheme, Host: host, Port: port}, nil
}

// String renders the endpoint key back into "scheme://host:port" form.
func (k EndpointKey) String() string {
	return k.Scheme + "://" + k.Host + ":" + strconv.Itoa(int(k.Port))
}

// Addr returns the "host:port" form suitable for net.Dial.
func (k EndpointKey) Addr() string {
	return k.Host + ":" + strconv.Itoa(int(k.Port))
}
