package dao

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/metrics"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/pkg/logger"
)

const (
	playersTable = "cardforge_players"
	historyTable = "cardforge_drop_history"
	auditTable   = "cardforge_audit_logs"
)

var playerColumns = []string{"user_id", "username", "inventory", "wallet", "experience", "last_drop_at", "is_banned"}

// observer 记录 SQL 后端的耗时与结果，可选回显 SQL
type observer struct {
	backend string
	logger  logger.Logger
	metrics *metrics.CardMetrics
	echo    bool
}

func (o observer) track(op string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	o.metrics.RecordStoreOp(o.backend, op, err, time.Since(start).Seconds())
	if err != nil {
		o.logger.Warn("store operation failed", "op", op, "error", err)
	}
}

func (o observer) echoSQL(query string, args []any) {
	if o.echo {
		o.logger.Info("sql", "query", query, "args", args)
	}
}

func encodeJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode json column")
	}
	return data, nil
}

func decodeInventory(data []byte) (map[string]int, error) {
	out := make(map[string]int)
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode inventory")
	}
	return out, nil
}

func decodeAmounts(data []byte) (map[string]int64, error) {
	out := make(map[string]int64)
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode amounts")
	}
	return out, nil
}

func decodeCardIDs(data []byte) ([]string, error) {
	var out []string
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode card ids")
	}
	return out, nil
}

// decodePayload 数字保留为 json.Number
func decodePayload(data []byte) (map[string]any, error) {
	out := make(map[string]any)
	if len(data) == 0 {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode audit payload")
	}
	return out, nil
}

type playerColumnsJSON struct {
	inventory []byte
	wallet    []byte
}

func encodePlayer(p *model.PlayerRecord) (playerColumnsJSON, error) {
	inv, err := encodeJSON(nonNilInventory(p.Inventory))
	if err != nil {
		return playerColumnsJSON{}, err
	}
	wallet, err := encodeJSON(nonNilWallet(p.Wallet))
	if err != nil {
		return playerColumnsJSON{}, err
	}
	return playerColumnsJSON{inventory: inv, wallet: wallet}, nil
}

func nonNilInventory(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func nonNilWallet(w model.Wallet) model.Wallet {
	if w == nil {
		return model.Wallet{}
	}
	return w
}

func nonNilAmounts(m map[string]int64) map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	return m
}
