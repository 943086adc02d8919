package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/roleplay-registry/internal/services/registry/domain/entity"
	"github.com/tidwall/gjson"
)

const lastIDKey = "last_id"

// terminatedStatus marks contracts that older payloads kept after termination.
const terminatedStatus = "terminated"

type businessDoc struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Owner  string `json:"owner"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type gangDoc struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Leader string `json:"leader"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type contractDoc struct {
	ID       int    `json:"id"`
	Business string `json:"business"`
	Gang     string `json:"gang"`
	Terms    string `json:"terms"`
	Status   string `json:"status"`
}

// envelope locates the record array and high-water mark in a payload. It
// accepts a bare array or an object keyed by collection name.
func envelope(payload []byte, collection string) (gjson.Result, int, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return gjson.Result{}, 0, nil
	}
	if !gjson.ValidBytes(payload) {
		return gjson.Result{}, 0, fmt.Errorf("invalid json")
	}
	root := gjson.ParseBytes(payload)
	if root.IsArray() {
		return root, 0, nil
	}
	if !root.IsObject() {
		return gjson.Result{}, 0, fmt.Errorf("unexpected %s payload", root.Type)
	}
	records := root.Get(collection)
	if records.Exists() && !records.IsArray() {
		return gjson.Result{}, 0, fmt.Errorf("%s is not an array", collection)
	}
	lastID := 0
	if value := root.Get(lastIDKey); value.Exists() {
		if value.Type != gjson.Number {
			return gjson.Result{}, 0, fmt.Errorf("%s is not a number", lastIDKey)
		}
		lastID = int(value.Int())
	}
	return records, lastID, nil
}

func decodeRegistrations(kind entity.Kind, payload []byte) (entity.Collection[entity.Registration], error) {
	records, lastID, err := envelope(payload, kind.Collection())
	if err != nil {
		return entity.Collection[entity.Registration]{}, err
	}
	out := entity.Collection[entity.Registration]{LastID: lastID}
	if !records.Exists() {
		return out, nil
	}

	switch kind {
	case entity.KindBusiness:
		var docs []businessDoc
		if err := json.Unmarshal([]byte(records.Raw), &docs); err != nil {
			return entity.Collection[entity.Registration]{}, fmt.Errorf("decode %s: %w", kind.Collection(), err)
		}
		for _, doc := range docs {
			out.Records = append(out.Records, registrationFromDoc(doc.ID, doc.Name, doc.Owner, doc.Status, doc.Reason))
		}
	case entity.KindGang:
		var docs []gangDoc
		if err := json.Unmarshal([]byte(records.Raw), &docs); err != nil {
			return entity.Collection[entity.Registration]{}, fmt.Errorf("decode %s: %w", kind.Collection(), err)
		}
		for _, doc := range docs {
			out.Records = append(out.Records, registrationFromDoc(doc.ID, doc.Name, doc.Leader, doc.Status, doc.Reason))
		}
	default:
		return entity.Collection[entity.Registration]{}, fmt.Errorf("kind %q has no registrations", kind)
	}
	return out, nil
}

func registrationFromDoc(id int, name, holder, status, reason string) entity.Registration {
	r := entity.Registration{ID: id, Name: name, Holder: holder, Status: entity.Status(status), Reason: reason}
	if parsed, ok := entity.ParseStatus(status); ok {
		r.Status = parsed
	}
	if r.Status != entity.StatusDenied {
		r.Reason = ""
	}
	return r
}

// decodeContracts also reports how many terminated records were dropped. Their
// ids stay retired through LastID.
func decodeContracts(payload []byte) (entity.Collection[entity.Contract], int, error) {
	records, lastID, err := envelope(payload, entity.KindContract.Collection())
	if err != nil {
		return entity.Collection[entity.Contract]{}, 0, err
	}
	out := entity.Collection[entity.Contract]{LastID: lastID}
	if !records.Exists() {
		return out, 0, nil
	}
	var docs []contractDoc
	if err := json.Unmarshal([]byte(records.Raw), &docs); err != nil {
		return entity.Collection[entity.Contract]{}, 0, fmt.Errorf("decode contracts: %w", err)
	}
	dropped := 0
	for _, doc := range docs {
		if strings.EqualFold(doc.Status, terminatedStatus) {
			out.LastID = max(out.LastID, doc.ID)
			dropped++
			continue
		}
		out.Records = append(out.Records, entity.Contract{
			ID:       doc.ID,
			Business: doc.Business,
			Gang:     doc.Gang,
			Terms:    doc.Terms,
			Status:   entity.Status(doc.Status),
		})
	}
	return out, dropped, nil
}

func encodeRegistrations(kind entity.Kind, c entity.Collection[entity.Registration]) ([]byte, error) {
	var records any
	switch kind {
	case entity.KindBusiness:
		docs := make([]businessDoc, 0, len(c.Records))
		for _, r := range c.Records {
			docs = append(docs, businessDoc{ID: r.ID, Name: r.Name, Owner: r.Holder, Status: string(r.Status), Reason: r.Reason})
		}
		records = docs
	case entity.KindGang:
		docs := make([]gangDoc, 0, len(c.Records))
		for _, r := range c.Records {
			docs = append(docs, gangDoc{ID: r.ID, Name: r.Name, Leader: r.Holder, Status: string(r.Status), Reason: r.Reason})
		}
		records = docs
	default:
		return nil, fmt.Errorf("kind %q has no registrations", kind)
	}
	return encode(kind.Collection(), records, c.NextID()-1)
}

func encodeContracts(c entity.Collection[entity.Contract]) ([]byte, error) {
	docs := make([]contractDoc, 0, len(c.Records))
	for _, r := range c.Records {
		docs = append(docs, contractDoc{ID: r.ID, Business: r.Business, Gang: r.Gang, Terms: r.Terms, Status: string(r.Status)})
	}
	return encode(entity.KindContract.Collection(), docs, c.NextID()-1)
}

// encode writes the canonical wrapped form with two-space indentation.
func encode(collection string, records any, lastID int) ([]byte, error) {
	doc := map[string]any{collection: records}
	if lastID > 0 {
		doc[lastIDKey] = lastID
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode %s: %w", collection, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
