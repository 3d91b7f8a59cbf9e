package ledger

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/roach88/memimg/internal/canonical"
	"github.com/roach88/memimg/internal/memimg"
	"github.com/roach88/memimg/internal/schema"
)

//go:embed ledger.cue
var schemaSource string

var commandSchema = sync.OnceValue(func() *schema.Schema {
	return schema.MustCompile(schemaSource)
})

// definitions maps a command type tag to its CUE payload definition.
var definitions = map[string]string{
	TypeCreateAccount: "#CreateAccount",
	TypeDeposit:       "#Deposit",
	TypeWithdrawal:    "#Withdrawal",
	TypeTransfer:      "#Transfer",
}

// ErrUnknownCommand is returned when an entry names no known command type.
var ErrUnknownCommand = errors.New("unknown command type")

// Codec encodes ledger commands as single-line canonical JSON:
//
//	{"data":{"account_id":"a1","amount":100},"type":"deposit"}
//
// Payloads are checked against the embedded CUE schema in both directions,
// and text fields must already be in the form the encoding writes, so a
// command either round-trips exactly or is refused.
type Codec struct {
	schema *schema.Schema
}

var _ memimg.Codec[*Ledger] = (*Codec)(nil)

// NewCodec returns a codec using the embedded schema.
func NewCodec() *Codec {
	return &Codec{schema: commandSchema()}
}

type envelope struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Encode serializes cmd. The output contains no newlines.
func (c *Codec) Encode(cmd memimg.Command[*Ledger]) ([]byte, error) {
	lc, isLedger := cmd.(Command)
	if !isLedger {
		return nil, fmt.Errorf("encode: %w: %T", ErrUnknownCommand, cmd)
	}
	typ := lc.CommandType()
	data := lc.payload()

	if err := checkPayload(data); err != nil {
		return nil, fmt.Errorf("encode %s: %w", typ, err)
	}
	if err := c.schema.Validate(definitions[typ], data); err != nil {
		return nil, fmt.Errorf("encode %s: %w", typ, err)
	}

	out, err := canonical.Marshal(map[string]any{"type": typ, "data": data})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", typ, err)
	}
	return out, nil
}

// Decode parses one entry produced by Encode.
func (c *Codec) Decode(entry []byte) (memimg.Command[*Ledger], error) {
	dec := json.NewDecoder(bytes.NewReader(entry))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var env envelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: trailing data after entry")
	}

	def, known := definitions[env.Type]
	if !known {
		return nil, fmt.Errorf("decode: %w: %q", ErrUnknownCommand, env.Type)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("decode %s: missing data", env.Type)
	}

	data, err := integers(env.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	if err := c.schema.Validate(def, data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	if err := checkPayload(data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}

	// The schema guarantees field presence and types below.
	switch env.Type {
	case TypeCreateAccount:
		return CreateAccount{ID: data["id"].(string), Name: data["name"].(string)}, nil
	case TypeDeposit:
		return Deposit{AccountID: data["account_id"].(string), Amount: Amount(data["amount"].(int64))}, nil
	case TypeWithdrawal:
		return Withdrawal{AccountID: data["account_id"].(string), Amount: Amount(data["amount"].(int64))}, nil
	case TypeTransfer:
		return Transfer{
			FromAccountID: data["from_account_id"].(string),
			ToAccountID:   data["to_account_id"].(string),
			Amount:        Amount(data["amount"].(int64)),
		}, nil
	}
	return nil, fmt.Errorf("decode: %w: %q", ErrUnknownCommand, env.Type)
}

// checkPayload applies the command text rules to every string field.
func checkPayload(data map[string]any) error {
	for _, k := range canonical.SortedKeys(data) {
		if text, isString := data[k].(string); isString {
			if err := checkText(k, text); err != nil {
				return err
			}
		}
	}
	return nil
}

// integers converts json.Number values to int64, rejecting non-integers.
func integers(data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for k, v := range data {
		n, isNumber := v.(json.Number)
		if !isNumber {
			out[k] = v
			continue
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("field %q: not an integer: %s", k, n)
		}
		out[k] = i
	}
	return out, nil
}
