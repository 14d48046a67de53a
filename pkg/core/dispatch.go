package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/blackcoderx/apman/pkg/collection"
	"github.com/blackcoderx/apman/pkg/shape"
	"github.com/blackcoderx/apman/pkg/transport"
)

// Invoke validates data, builds the request and sends it. It returns the
// decoded response payload.
func (op *Operation) Invoke(ctx context.Context, data Data) (any, error) {
	resp, err := op.Do(ctx, data)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Func returns Invoke as an OperationFunc.
func (op *Operation) Func() OperationFunc {
	return op.Invoke
}

// Do is Invoke returning the full transport response.
func (op *Operation) Do(ctx context.Context, data Data) (*transport.Response, error) {
	data, err := op.prepare(data)
	if err != nil {
		op.opts.log.DebugContext(ctx, "operation.invalid", "operation", op.Name, "err", err)
		return nil, err
	}

	req := op.BuildRequest(data)
	op.opts.log.DebugContext(ctx, "operation.invoke", "operation", op.Name, "method", req.Method, "url", req.URL)

	start := time.Now()
	resp, err := op.opts.transport.Send(ctx, req)
	op.observe(ctx, req, resp, err, time.Since(start))
	if err != nil {
		return nil, transportError(op.Name, err)
	}
	return resp, nil
}

// prepare normalizes data and, unless legacy mode is on, validates it. The
// returned data is what the request is built from.
func (op *Operation) prepare(data Data) (Data, error) {
	data, err := normalize(data)
	if err != nil {
		return nil, validationError(op.Name, err)
	}
	if !op.opts.legacyBody {
		if err := op.Schema.Validate(map[string]any(data)); err != nil {
			return nil, validationError(op.Name, err)
		}
	}
	return data, nil
}

// normalize re-decodes data through JSON, so any map or struct the caller
// used becomes a plain map[string]any tree. Numbers are kept as json.Number
// to preserve their literal form in URLs and forms.
func normalize(data Data) (Data, error) {
	if data == nil {
		return Data{}, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("data is not JSON-encodable: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out Data
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to normalize data: %w", err)
	}
	if out == nil {
		out = Data{}
	}
	return out, nil
}

func (op *Operation) observe(ctx context.Context, req transport.Request, resp *transport.Response, err error, d time.Duration) {
	if op.opts.observer == nil {
		return
	}
	info := CallInfo{Operation: op.Name, Method: req.Method, URL: req.URL, Duration: d, Err: err}
	if resp != nil {
		info.Status = resp.StatusCode
	}
	var se *transport.StatusError
	if errors.As(err, &se) {
		info.Status = se.StatusCode
	}
	op.opts.observer(ctx, info)
}

// BuildRequest assembles the transport request for already validated data.
func (op *Operation) BuildRequest(data Data) transport.Request {
	body := data[shape.KeyBody]
	if op.opts.legacyBody {
		body = map[string]any(data)
	}

	return transport.Request{
		Method:   strings.ToLower(op.Request.MethodOrDefault()),
		URL:      op.URL(data),
		Headers:  op.env.Headers(),
		Body:     body,
		Encoding: encodingFor(op.Request.Body),
	}
}

// URL builds the final request URL: variables are resolved, ":name" path
// segments are replaced from data's "variable" object and declared query
// parameters are appended from data's "query" object. Query values are not
// percent-encoded. URLs without an http(s) scheme get https://.
func (op *Operation) URL(data Data) string {
	u := op.Request.URL

	var raw string
	if u.HasParts() {
		raw = joinParts(u)
	} else {
		raw = u.RawWithoutQuery()
	}
	raw = op.env.Variables.Resolve(raw)

	if names := shape.PathVariableNames(u); len(names) > 0 {
		raw = substitutePath(raw, names, section(data, shape.KeyVariable))
	}

	if query := activeQuery(u); len(query) > 0 {
		values := section(data, shape.KeyQuery)
		pairs := make([]string, 0, len(query))
		for _, p := range query {
			v, ok := values[p.Key]
			if !ok {
				v = p.Value
			}
			pairs = append(pairs, p.Key+"="+stringify(v))
		}
		raw += "?" + strings.Join(pairs, "&")
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}
	return raw
}

func joinParts(u collection.URL) string {
	var b strings.Builder
	if u.Protocol != "" {
		b.WriteString(u.Protocol)
		b.WriteString("://")
	}
	b.WriteString(strings.Join(u.Host, "."))
	if u.Port != "" {
		b.WriteString(":")
		b.WriteString(u.Port)
	}
	if len(u.Path) > 0 {
		b.WriteString("/")
		b.WriteString(strings.Join(u.Path, "/"))
	}
	return b.String()
}

func substitutePath(raw string, names []string, values map[string]any) string {
	declared := make(map[string]bool, len(names))
	for _, n := range names {
		declared[n] = true
	}

	segments := strings.Split(raw, "/")
	for i, seg := range segments {
		name, ok := strings.CutPrefix(seg, ":")
		if !ok || !declared[name] {
			continue
		}
		if v, ok := values[name]; ok {
			segments[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(segments, "/")
}

func activeQuery(u collection.URL) []collection.Param {
	var out []collection.Param
	for _, p := range u.QueryParams() {
		if !p.Disabled {
			out = append(out, p)
		}
	}
	return out
}

// section returns data[key] as a map. Any map with string keys is accepted.
func section(data Data, key string) map[string]any {
	switch v := data[key].(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case Data:
		return v
	}

	rv := reflect.ValueOf(data[key])
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func encodingFor(body *collection.Body) transport.Encoding {
	if body == nil {
		return transport.EncodingJSON
	}
	switch body.Mode {
	case collection.ModeURLEncoded:
		return transport.EncodingForm
	case collection.ModeFormData:
		return transport.EncodingMultipart
	default:
		return transport.EncodingJSON
	}
}
