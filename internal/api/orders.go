package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
)

// Resource describes a REST collection of order-shaped records.
type Resource struct {
	// Name is the singular noun used in messages.
	Name string
	// Path is the collection path below the API root.
	Path string
	// ListKey is the field of the list response that holds the records.
	ListKey string
	// BulkIDKey is the field of bulk request bodies that holds the ids.
	BulkIDKey string
}

// Orders is the purchase order collection.
var Orders = Resource{
	Name:      "order",
	Path:      "/api/v1/orders",
	ListKey:   "orders",
	BulkIDKey: "order_ids",
}

// DefaultStores are offered as suggestions even before the user has used them.
var DefaultStores = []string{
	"EB Games",
	"JB Hi-Fi",
	"Target Australia",
	"Big W",
	"Kmart Australia",
	"Good Games",
	"Gameology",
	"Zing Pop Culture",
}

// RecordClient reads and writes one Resource.
type RecordClient struct {
	client   *Client
	resource Resource
}

// Records returns a client for resource.
func (c *Client) Records(resource Resource) *RecordClient {
	return &RecordClient{client: c, resource: resource}
}

// Resource returns the collection this client serves.
func (r *RecordClient) Resource() Resource {
	return r.resource
}

func (r *RecordClient) itemPath(id string) string {
	return r.resource.Path + "/" + id
}

// List fetches one page of records matching s.
func (r *RecordClient) List(ctx context.Context, s filter.State) (model.QueryResult, error) {
	req := request{
		method: http.MethodGet,
		path:   r.resource.Path,
		query:  filter.Values(s),
		op:     "list " + r.resource.Name + "s",
	}

	var raw map[string]json.RawMessage
	if err := r.client.do(ctx, req, &raw); err != nil {
		return model.QueryResult{}, err
	}

	var res model.QueryResult
	if items, ok := raw[r.resource.ListKey]; ok {
		if err := json.Unmarshal(items, &res.Items); err != nil {
			return model.QueryResult{}, fmt.Errorf("failed to decode %s: %w", r.resource.ListKey, err)
		}
	}
	for key, dst := range map[string]*int{"total": &res.Total, "page": &res.Page, "page_size": &res.PageSize} {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return model.QueryResult{}, fmt.Errorf("failed to decode %s: %w", key, err)
			}
		}
	}
	if res.Items == nil {
		res.Items = []model.Order{}
	}
	return res, nil
}

// Get fetches one record.
func (r *RecordClient) Get(ctx context.Context, id string) (model.Order, error) {
	var out model.Order
	req := request{method: http.MethodGet, path: r.itemPath(id), op: "get " + r.resource.Name}
	if err := r.client.do(ctx, req, &out); err != nil {
		return model.Order{}, err
	}
	return out, nil
}

// Create adds a record.
func (r *RecordClient) Create(ctx context.Context, in model.OrderCreate) (model.Order, error) {
	req, err := jsonRequest(http.MethodPost, r.resource.Path, "create "+r.resource.Name, in)
	if err != nil {
		return model.Order{}, err
	}
	var out model.Order
	if err := r.client.do(ctx, req, &out); err != nil {
		return model.Order{}, err
	}
	return out, nil
}

// Update sends the non-nil fields of u.
func (r *RecordClient) Update(ctx context.Context, id string, u model.OrderUpdate) (model.Order, error) {
	req, err := jsonRequest(http.MethodPut, r.itemPath(id), "update "+r.resource.Name, u)
	if err != nil {
		return model.Order{}, err
	}
	var out model.Order
	if err := r.client.do(ctx, req, &out); err != nil {
		return model.Order{}, err
	}
	return out, nil
}

// Delete removes one record.
func (r *RecordClient) Delete(ctx context.Context, id string) error {
	req := request{method: http.MethodDelete, path: r.itemPath(id), op: "delete " + r.resource.Name}
	return r.client.do(ctx, req, nil)
}

type bulkResponse struct {
	UpdatedCount *int     `json:"updated_count"`
	DeletedCount *int     `json:"deleted_count"`
	Message      string   `json:"message"`
	FailedIDs    []string `json:"failed_ids"`
}

func (b bulkResponse) result(op model.BulkOp) model.BulkResult {
	res := model.BulkResult{Op: op, Message: b.Message, FailedIDs: b.FailedIDs}
	switch {
	case b.UpdatedCount != nil:
		res.Count = *b.UpdatedCount
	case b.DeletedCount != nil:
		res.Count = *b.DeletedCount
	}
	return res
}

// BulkUpdate applies u to every id.
func (r *RecordClient) BulkUpdate(ctx context.Context, ids []string, u model.OrderUpdate) (model.BulkResult, error) {
	body := map[string]any{r.resource.BulkIDKey: ids, "update_data": u}
	req, err := jsonRequest(http.MethodPost, r.resource.Path+"/bulk-update", string(model.BulkUpdateOp), body)
	if err != nil {
		return model.BulkResult{}, err
	}
	var out bulkResponse
	if err := r.client.do(ctx, req, &out); err != nil {
		return model.BulkResult{}, err
	}
	return out.result(model.BulkUpdateOp), nil
}

// BulkDelete removes every id.
func (r *RecordClient) BulkDelete(ctx context.Context, ids []string) (model.BulkResult, error) {
	body := map[string]any{r.resource.BulkIDKey: ids}
	req, err := jsonRequest(http.MethodPost, r.resource.Path+"/bulk-delete", string(model.BulkDeleteOp), body)
	if err != nil {
		return model.BulkResult{}, err
	}
	var out bulkResponse
	if err := r.client.do(ctx, req, &out); err != nil {
		return model.BulkResult{}, err
	}
	return out.result(model.BulkDeleteOp), nil
}

// Stores returns the store names the user has ordered from, merged with
// DefaultStores, de-duplicated and sorted.
func (r *RecordClient) Stores(ctx context.Context) ([]string, error) {
	var used []string
	req := request{method: http.MethodGet, path: r.resource.Path + "/stores", op: "list stores"}
	if err := r.client.do(ctx, req, &used); err != nil {
		return nil, err
	}
	return MergeStores(used), nil
}

// MergeStores combines used with DefaultStores, dropping blanks and
// duplicates, sorted case-insensitively.
func MergeStores(used []string) []string {
	seen := make(map[string]bool, len(used)+len(DefaultStores))
	out := make([]string, 0, len(used)+len(DefaultStores))
	for _, name := range slices.Concat(DefaultStores, used) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	slices.SortFunc(out, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}

// Export streams the CSV export of every record into w and returns the
// number of bytes written.
func (r *RecordClient) Export(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := r.client.send(ctx, request{
		method: http.MethodGet,
		path:   r.resource.Path + "/export",
		op:     "export " + r.resource.Name + "s",
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to write export: %w", err)
	}
	return n, nil
}

// Import uploads a CSV file of records.
func (r *RecordClient) Import(ctx context.Context, filename string, src io.Reader) (model.ImportResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err == nil {
			_, err = io.Copy(part, src)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req := request{
		method:      http.MethodPost,
		path:        r.resource.Path + "/import",
		op:          "import " + r.resource.Name + "s",
		body:        pr,
		contentType: mw.FormDataContentType(),
	}

	var out model.ImportResult
	err := r.client.do(ctx, req, &out)
	_ = pr.Close()
	if err != nil {
		return model.ImportResult{}, err
	}
	return out, nil
}
