package spec

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/segmentio/encoding/json"
)

// BuildOption configures how the ServiceModel is built from a document.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[HttpMethod]struct{}
	pathRes     []*regexp.Regexp
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.includeTags == nil {
				c.includeTags = make(map[string]struct{}, len(tags))
			}
			c.includeTags[t] = struct{}{}
		}
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.excludeTags == nil {
				c.excludeTags = make(map[string]struct{}, len(tags))
			}
			c.excludeTags[t] = struct{}{}
		}
	}
}

// WithMethods keeps only operations using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) BuildOption {
	return func(c *buildConfig) {
		for _, m := range methods {
			if c.methods == nil {
				c.methods = make(map[HttpMethod]struct{}, len(methods))
			}
			c.methods[HttpMethod(strings.ToLower(string(m)))] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only operations whose path matches at least one of
// the provided regular expressions. Invalid patterns never match.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

func (c *buildConfig) allows(method HttpMethod, path string, tags []string) bool {
	if len(c.methods) > 0 {
		if _, ok := c.methods[method]; !ok {
			return false
		}
	}
	if len(c.pathRes) > 0 {
		matched := false
		for _, re := range c.pathRes {
			if re.MatchString(path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return allowByTags(tags, c)
}

// BuildServiceModel converts a loaded document into the Internal Model (IM):
// an ordered list of operations with parameters in declaration order.
// Paths are visited in sorted order and methods in a fixed order so the
// result is deterministic.
func BuildServiceModel(ctx context.Context, doc *Document, opts ...BuildOption) (*ServiceModel, error) {
	_ = ctx
	if doc == nil || (doc.V2 == nil && doc.V3 == nil) {
		return nil, fmt.Errorf("nil document")
	}

	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var sm *ServiceModel
	if doc.V2 != nil {
		sm = buildFromV2(doc.V2, cfg)
	} else {
		sm = buildFromV3(doc.V3, cfg)
	}
	sm.Tags = collectSortedTags(sm.Operations)
	return sm, nil
}

type methodOp[T any] struct {
	m HttpMethod
	o *T
}

func buildFromV2(doc *openapi2.T, cfg *buildConfig) *ServiceModel {
	sm := &ServiceModel{
		Title:       safeStr(doc.Info.Title),
		Version:     safeStr(doc.Info.Version),
		Description: safeStr(doc.Info.Description),
		Endpoint:    v2Endpoint(doc),
	}

	for _, p := range sortedKeys(doc.Paths) {
		item := doc.Paths[p]
		if item == nil {
			continue
		}
		base := v2Parameters(doc, item.Parameters)

		ops := []methodOp[openapi2.Operation]{
			{GET, item.Get},
			{POST, item.Post},
			{PUT, item.Put},
			{DELETE, item.Delete},
			{PATCH, item.Patch},
			{HEAD, item.Head},
			{OPTIONS, item.Options},
		}
		for _, pair := range ops {
			if pair.o == nil {
				continue
			}
			tags := trimTags(pair.o.Tags)
			if !cfg.allows(pair.m, p, tags) {
				continue
			}
			op := Operation{
				ID:          safeStr(pair.o.OperationID),
				Method:      pair.m,
				Path:        p,
				APIVersion:  sm.Version,
				Parameters:  mergeParameters(base, v2Parameters(doc, pair.o.Parameters)),
				Summary:     safeStr(pair.o.Summary),
				Description: safeStr(pair.o.Description),
				Consumes:    firstContentType(pair.o.Consumes, doc.Consumes),
				Tags:        tags,
			}
			for _, code := range sortedKeys(pair.o.Responses) {
				r := resolveV2Response(doc, pair.o.Responses[code])
				if r == nil {
					continue
				}
				op.Responses = append(op.Responses, Response{
					Status:      code,
					Description: safeStr(r.Description),
					Schema:      toSchemaRef(r.Schema),
				})
			}
			op.Pageable, op.LongRunning = readAzureHints(pair.o.Extensions)
			sm.Operations = append(sm.Operations, op)
		}
	}
	return sm
}

func buildFromV3(doc *openapi3.T, cfg *buildConfig) *ServiceModel {
	sm := &ServiceModel{}
	if doc.Info != nil {
		sm.Title = safeStr(doc.Info.Title)
		sm.Version = safeStr(doc.Info.Version)
		sm.Description = safeStr(doc.Info.Description)
	}
	for _, s := range doc.Servers {
		if s == nil {
			continue
		}
		if u := strings.TrimRight(safeStr(s.URL), "/"); strings.Contains(u, "://") && !strings.Contains(u, "{") {
			sm.Endpoint = u
			break
		}
	}

	for _, p := range sortedKeys(doc.Paths) {
		item := doc.Paths[p]
		if item == nil {
			continue
		}
		base := v3Parameters(sm, p, item.Parameters)
		if item.Trace != nil {
			sm.Issues = append(sm.Issues, fmt.Sprintf("trace %s: TRACE operations are not supported and were skipped", p))
		}

		ops := []methodOp[openapi3.Operation]{
			{GET, item.Get},
			{POST, item.Post},
			{PUT, item.Put},
			{DELETE, item.Delete},
			{PATCH, item.Patch},
			{HEAD, item.Head},
			{OPTIONS, item.Options},
		}
		for _, pair := range ops {
			if pair.o == nil {
				continue
			}
			tags := trimTags(pair.o.Tags)
			if !cfg.allows(pair.m, p, tags) {
				continue
			}
			op := Operation{
				ID:          safeStr(pair.o.OperationID),
				Method:      pair.m,
				Path:        p,
				APIVersion:  sm.Version,
				Parameters:  mergeParameters(base, v3Parameters(sm, p, pair.o.Parameters)),
				Summary:     safeStr(pair.o.Summary),
				Description: safeStr(pair.o.Description),
				Consumes:    DefaultContentType,
				Tags:        tags,
			}
			if rb := pair.o.RequestBody; rb != nil && rb.Value != nil {
				mime, media := pickMedia(rb.Value.Content)
				if media != nil {
					loc := InBody
					if isFormMime(mime) {
						loc = InFormData
					}
					name := "body"
					var custom string
					if readExtension(pair.o.Extensions, "x-codegen-request-body-name", &custom) && custom != "" {
						name = custom
					}
					op.Consumes = mime
					op.Parameters = append(op.Parameters, Parameter{
						Name:        name,
						Location:    loc,
						Required:    rb.Value.Required,
						Schema:      toSchemaRef(media.Schema),
						Description: safeStr(rb.Value.Description),
					})
				}
			}
			for _, code := range sortedKeys(pair.o.Responses) {
				rref := pair.o.Responses[code]
				if rref == nil || rref.Value == nil {
					continue
				}
				resp := Response{Status: code}
				if rref.Value.Description != nil {
					resp.Description = safeStr(*rref.Value.Description)
				}
				if _, media := pickMedia(rref.Value.Content); media != nil {
					resp.Schema = toSchemaRef(media.Schema)
				}
				op.Responses = append(op.Responses, resp)
			}
			op.Pageable, op.LongRunning = readAzureHints(pair.o.Extensions)
			sm.Operations = append(sm.Operations, op)
		}
	}
	return sm
}

func v2Endpoint(doc *openapi2.T) string {
	host := safeStr(doc.Host)
	if host == "" {
		return ""
	}
	scheme := "https"
	if len(doc.Schemes) > 0 {
		scheme = doc.Schemes[0]
		for _, s := range doc.Schemes {
			if s == "https" {
				scheme = s
				break
			}
		}
	}
	return scheme + "://" + host + strings.TrimRight(doc.BasePath, "/")
}

func v2Parameters(doc *openapi2.T, params openapi2.Parameters) []Parameter {
	out := make([]Parameter, 0, len(params))
	for _, p := range params {
		p = resolveV2Parameter(doc, p)
		if p == nil {
			continue
		}
		pm := Parameter{
			Name:        safeStr(p.Name),
			Location:    ParameterLocation(p.In),
			Required:    p.Required,
			Description: safeStr(p.Description),
		}
		if pm.Location == InBody {
			pm.Schema = toSchemaRef(p.Schema)
		} else {
			pm.Schema = &SchemaRef{Type: p.Type, Format: p.Format, Items: toSchemaRef(p.Items)}
			if p.Type == "array" {
				pm.CollectionFormat = CollectionFormat(p.CollectionFormat)
				if pm.CollectionFormat == CollectionNone {
					pm.CollectionFormat = CollectionCSV
				}
			}
		}
		out = append(out, pm)
	}
	return out
}

func resolveV2Parameter(doc *openapi2.T, p *openapi2.Parameter) *openapi2.Parameter {
	if p == nil || p.Ref == "" {
		return p
	}
	name := strings.TrimPrefix(p.Ref, "#/parameters/")
	return doc.Parameters[name]
}

func resolveV2Response(doc *openapi2.T, r *openapi2.Response) *openapi2.Response {
	if r == nil || r.Ref == "" {
		return r
	}
	name := strings.TrimPrefix(r.Ref, "#/responses/")
	return doc.Responses[name]
}

func v3Parameters(sm *ServiceModel, path string, params openapi3.Parameters) []Parameter {
	out := make([]Parameter, 0, len(params))
	for _, pref := range params {
		if pref == nil || pref.Value == nil {
			continue
		}
		p := pref.Value
		loc := ParameterLocation(p.In)
		switch loc {
		case InPath, InQuery, InHeader:
		default:
			sm.Issues = append(sm.Issues, fmt.Sprintf("%s: %s parameter %q is not supported and was skipped", path, p.In, p.Name))
			continue
		}
		pm := Parameter{
			Name:        safeStr(p.Name),
			Location:    loc,
			Required:    p.Required,
			Schema:      toSchemaRef(p.Schema),
			Description: safeStr(p.Description),
		}
		if pm.Schema != nil && pm.Schema.Type == "array" {
			pm.CollectionFormat = styleToCollectionFormat(p.Style, p.Explode)
		}
		out = append(out, pm)
	}
	return out
}

func styleToCollectionFormat(style string, explode *bool) CollectionFormat {
	switch style {
	case "", "form":
		if explode == nil || *explode {
			return CollectionMulti
		}
		return CollectionCSV
	case "spaceDelimited":
		return CollectionSSV
	case "pipeDelimited":
		return CollectionPipes
	default:
		return CollectionCSV
	}
}

// mergeParameters overlays operation-level parameters onto path-level ones.
// An override keeps the position of the parameter it replaces.
func mergeParameters(base, ops []Parameter) []Parameter {
	out := make([]Parameter, 0, len(base)+len(ops))
	index := make(map[string]int, len(base)+len(ops))
	for _, group := range [][]Parameter{base, ops} {
		for _, p := range group {
			key := paramKey(string(p.Location), p.Name)
			if i, ok := index[key]; ok {
				out[i] = p
				continue
			}
			index[key] = len(out)
			out = append(out, p)
		}
	}
	return out
}

func pickMedia(content openapi3.Content) (string, *openapi3.MediaType) {
	if len(content) == 0 {
		return "", nil
	}
	if mt, ok := content[DefaultContentType]; ok && mt != nil {
		return DefaultContentType, mt
	}
	for _, mime := range sortedKeys(content) {
		if mt := content[mime]; mt != nil {
			return mime, mt
		}
	}
	return "", nil
}

func isFormMime(mime string) bool {
	return mime == "application/x-www-form-urlencoded" || strings.HasPrefix(mime, "multipart/form-data")
}

func firstContentType(lists ...[]string) string {
	for _, l := range lists {
		for _, c := range l {
			if c = strings.TrimSpace(c); c != "" {
				return c
			}
		}
	}
	return DefaultContentType
}

type pageableExtension struct {
	NextLinkName *string `json:"nextLinkName"`
}

// readAzureHints extracts x-ms-pageable and x-ms-long-running-operation.
func readAzureHints(ext map[string]any) (*Pageable, bool) {
	var pageable *Pageable
	var pe pageableExtension
	if readExtension(ext, "x-ms-pageable", &pe) {
		pageable = &Pageable{NextLinkName: pe.NextLinkName}
	}
	var lro bool
	readExtension(ext, "x-ms-long-running-operation", &lro)
	return pageable, lro
}

// readExtension decodes a vendor extension into out. Extension values may be
// raw JSON or already-decoded values; both round-trip through JSON.
func readExtension(ext map[string]any, key string, out any) bool {
	v, ok := ext[key]
	if !ok || v == nil {
		return false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func toSchemaRef(ref *openapi3.SchemaRef) *SchemaRef {
	if ref == nil {
		return nil
	}
	out := &SchemaRef{Ref: ref.Ref}
	if ref.Value != nil {
		out.Type = ref.Value.Type
		out.Format = ref.Value.Format
		out.Items = toSchemaRef(ref.Value.Items)
	}
	return out
}

func allowByTags(tags []string, cfg *buildConfig) bool {
	if len(cfg.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := cfg.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := cfg.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}

func collectSortedTags(ops []Operation) []string {
	seen := map[string]struct{}{}
	for _, op := range ops {
		for _, t := range op.Tags {
			seen[t] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func trimTags(in []string) []string {
	tags := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func paramKey(in, name string) string { return in + ":" + name }

func safeStr(s string) string { return strings.TrimSpace(s) }
