package api

import (
	"context"
	"encoding/json"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// DB is the db_* namespace, a small key/value store on the node.
type DB struct {
	t rpc.Transport
}

func (d *DB) GetHex(ctx context.Context, db, key string) (string, error) {
	return asString(d.t.Execute(ctx, "db_getHex", db, key))
}

func (d *DB) GetString(ctx context.Context, db, key string) (string, error) {
	return asString(d.t.Execute(ctx, "db_getString", db, key))
}

func (d *DB) PutHex(ctx context.Context, db, key, value string) (bool, error) {
	return asBool(d.t.Execute(ctx, "db_putHex", db, key, format.InHex(value)))
}

func (d *DB) PutString(ctx context.Context, db, key, value string) (bool, error) {
	return asBool(d.t.Execute(ctx, "db_putString", db, key, value))
}

// Shh is the shh_* (whisper) namespace. Message and filter objects are
// passed through as the node defines them.
type Shh struct {
	t rpc.Transport
}

func (s *Shh) Version(ctx context.Context) (string, error) {
	return asString(s.t.Execute(ctx, "shh_version"))
}

// NewKeyPair returns the id of the generated identity.
func (s *Shh) NewKeyPair(ctx context.Context) (string, error) {
	return asString(s.t.Execute(ctx, "shh_newKeyPair"))
}

func (s *Shh) HasKeyPair(ctx context.Context, id string) (bool, error) {
	return asBool(s.t.Execute(ctx, "shh_hasKeyPair", id))
}

func (s *Shh) DeleteKey(ctx context.Context, id string) (bool, error) {
	return asBool(s.t.Execute(ctx, "shh_deleteKey", id))
}

func (s *Shh) Post(ctx context.Context, message map[string]interface{}) (bool, error) {
	return asBool(s.t.Execute(ctx, "shh_post", message))
}

func (s *Shh) NewMessageFilter(ctx context.Context, filter map[string]interface{}) (string, error) {
	return asString(s.t.Execute(ctx, "shh_newMessageFilter", filter))
}

func (s *Shh) GetFilterMessages(ctx context.Context, filterID string) ([]json.RawMessage, error) {
	return asRawList(s.t.Execute(ctx, "shh_getFilterMessages", filterID))
}

func (s *Shh) DeleteMessageFilter(ctx context.Context, filterID string) (bool, error) {
	return asBool(s.t.Execute(ctx, "shh_deleteMessageFilter", filterID))
}
