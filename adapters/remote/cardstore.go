package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/opsml/opsml/domain/card"
	"github.com/opsml/opsml/domain/semver"
	"github.com/opsml/opsml/ports"
)

// CardStore forwards registry operations to the server's JSON API.
//
// API contract:
//
//	POST /check_uid {uid, table_name}                → {uid_exists}
//	POST /version   {name, team, version_type, table_name} → {version}
//	POST /list      {uid?, name?, team?, version?, limit?, table_name} → {records}
//	POST /create    {record, table_name}             → {registered, version}
//	POST /update    {record, table_name}             → {updated}
type CardStore struct {
	client *Client
}

// NewCardStore creates a registry client against the given server.
func NewCardStore(client *Client) *CardStore {
	return &CardStore{client: client}
}

var _ ports.CardStore = (*CardStore)(nil)

func (s *CardStore) Register(ctx context.Context, rt card.RegistryType, rec card.Record, bump semver.BumpType) (string, error) {
	req := map[string]any{
		"record":       rec.Map(),
		"table_name":   rt.TableName(),
		"version_type": string(bump),
	}

	var resp struct {
		Registered bool   `json:"registered"`
		Version    string `json:"version"`
	}
	if err := s.client.Request(ctx, http.MethodPost, "/create", req, &resp); err != nil {
		return "", mapRemoteError(err)
	}
	if !resp.Registered {
		return "", fmt.Errorf("register card %s: server refused registration", rec.UID)
	}
	return resp.Version, nil
}

func (s *CardStore) NextVersion(ctx context.Context, rt card.RegistryType, name, team string, bump semver.BumpType) (string, error) {
	req := map[string]any{
		"name":         name,
		"team":         team,
		"version_type": string(bump),
		"table_name":   rt.TableName(),
	}

	var resp struct {
		Version string `json:"version"`
	}
	if err := s.client.Request(ctx, http.MethodPost, "/version", req, &resp); err != nil {
		return "", mapRemoteError(err)
	}
	return resp.Version, nil
}

func (s *CardStore) CheckUID(ctx context.Context, rt card.RegistryType, uid string) (bool, error) {
	req := map[string]any{
		"uid":        uid,
		"table_name": rt.TableName(),
	}

	var resp struct {
		UIDExists bool `json:"uid_exists"`
	}
	if err := s.client.Request(ctx, http.MethodPost, "/check_uid", req, &resp); err != nil {
		return false, mapRemoteError(err)
	}
	return resp.UIDExists, nil
}

func (s *CardStore) List(ctx context.Context, rt card.RegistryType, f card.Filter) ([]card.Record, error) {
	req := map[string]any{
		"table_name": rt.TableName(),
	}
	if f.UID != "" {
		req["uid"] = f.UID
	}
	if f.Name != "" {
		req["name"] = f.Name
	}
	if f.Team != "" {
		req["team"] = f.Team
	}
	if f.Version != "" {
		req["version"] = f.Version
	}
	if f.Limit > 0 {
		req["limit"] = f.Limit
	}

	var resp struct {
		Records []map[string]any `json:"records"`
	}
	if err := s.client.Request(ctx, http.MethodPost, "/list", req, &resp); err != nil {
		return nil, mapRemoteError(err)
	}

	records := make([]card.Record, 0, len(resp.Records))
	for _, m := range resp.Records {
		rec, err := card.RecordFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("decode listed record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *CardStore) Update(ctx context.Context, rt card.RegistryType, rec card.Record) error {
	req := map[string]any{
		"record":     rec.Map(),
		"table_name": rt.TableName(),
	}

	var resp struct {
		Updated bool `json:"updated"`
	}
	if err := s.client.Request(ctx, http.MethodPost, "/update", req, &resp); err != nil {
		return mapRemoteError(err)
	}
	if !resp.Updated {
		return fmt.Errorf("update card %s: server refused update", rec.UID)
	}
	return nil
}

// mapRemoteError translates server status codes back into the
// registry's sentinel errors so callers behave the same in local and
// proxy mode.
func mapRemoteError(err error) error {
	if IsNotFound(err) {
		return fmt.Errorf("%w: %s", card.ErrNotFound, err)
	}
	return err
}
