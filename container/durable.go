package container

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/buntdb"

	"github.com/madwave-project/madwave/internal/debug"
	"github.com/madwave-project/madwave/internal/nlog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// durableBackend persists a container's local shard to disk with
// tidwall/buntdb, the same embedded-KV choice the rest of the pack reaches
// for when a component needs a lightweight durable store without running a
// separate database process.
type durableBackend struct {
	db *buntdb.DB
}

func openDurable(path string) (*durableBackend, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &durableBackend{db: db}, nil
}

func keyString(k Key) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(k.N))
	for _, l := range k.L {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(l))
	}
	return sb.String()
}

func (d *durableBackend) put(k Key, v any) {
	buf, err := json.Marshal(v)
	debug.AssertNoErr(err)
	enc := base64.StdEncoding.EncodeToString(buf)
	err = d.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(keyString(k), enc, nil)
		return err
	})
	if err != nil {
		nlog.Errorln(module, "durable put failed:", err)
	}
}

func (d *durableBackend) del(k Key) {
	err := d.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(keyString(k))
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		nlog.Errorln(module, "durable delete failed:", err)
	}
}

// loadAll iterates every persisted record and decodes it with decode,
// invoked once at container construction via Container.loadFromDurable.
func (d *durableBackend) loadAll(decode func(raw []byte) (any, error)) (map[string]any, error) {
	out := map[string]any{}
	err := d.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, val string) bool {
			raw, err := base64.StdEncoding.DecodeString(val)
			if err != nil {
				nlog.Errorln(module, "durable record", key, "corrupt:", err)
				return true
			}
			v, err := decode(raw)
			if err != nil {
				nlog.Errorln(module, "durable record", key, "decode failed:", err)
				return true
			}
			out[key] = v
			return true
		})
	})
	return out, err
}

func (d *durableBackend) close() error { return d.db.Close() }

func parseKeyString(s string) (Key, error) {
	parts := strings.Split(s, ":")
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return Key{}, fmt.Errorf("container: malformed durable key %q: %w", s, err)
	}
	k := Key{N: n, L: make([]int, len(parts)-1)}
	for i, p := range parts[1:] {
		l, err := strconv.Atoi(p)
		if err != nil {
			return Key{}, fmt.Errorf("container: malformed durable key %q: %w", s, err)
		}
		k.L[i] = l
	}
	return k, nil
}
