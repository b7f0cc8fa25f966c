package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Transport executes a named remote procedure and returns the raw "result"
// member of the response. Implementations must be safe for concurrent use.
type Transport interface {
	Execute(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)
	Close() error
}

// SubscriptionCallback receives every notification of one subscription. A
// non-nil error is delivered exactly once, when the subscription dies with
// its connection; no further calls follow it.
type SubscriptionCallback func(err error, result json.RawMessage)

// Subscriber is implemented by transports with a server push channel.
type Subscriber interface {
	Transport

	// Subscribe calls "<namespace>_subscribe" with event and params and routes
	// notifications for the returned id to cb.
	Subscribe(ctx context.Context, namespace string, cb SubscriptionCallback, event string, params ...interface{}) (string, error)

	// Unsubscribe calls "<namespace>_unsubscribe" for each id and stops
	// local dispatch. It reports whether every id was cancelled remotely.
	Unsubscribe(ctx context.Context, namespace string, ids ...string) (bool, error)
}

// Dial picks a transport implementation from the URL scheme.
func Dial(ctx context.Context, rawurl string, timeout time.Duration) (Transport, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, Wrap(KindValidation, err, "invalid endpoint url")
	}
	switch u.Scheme {
	case "http", "https":
		return NewHTTPTransport(rawurl, timeout), nil
	case "ws", "wss":
		return DialWebsocket(ctx, rawurl, timeout)
	default:
		return nil, Errorf(KindValidation, "unsupported endpoint scheme %q", u.Scheme)
	}
}

// Call is a convenience that decodes the result of t.Execute into out.
func Call(ctx context.Context, t Transport, out interface{}, method string, params ...interface{}) error {
	raw, err := t.Execute(ctx, method, params...)
	if err != nil {
		return err
	}
	if out == nil || IsNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return Wrap(KindParse, err, fmt.Sprintf("decode %s result", method))
	}
	return nil
}
