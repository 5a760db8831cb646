package builder

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"sort"
	"strconv"
	"sync"

	"github.com/chainms/internal/page"
	"golang.org/x/sync/errgroup"
)

const (
	maxZoneDepth     = 8
	prefetchParallel = 4
)

// WriteOutcome is the result of a ContractWrite submission shown next to its form.
type WriteOutcome struct {
	Address  string
	Function string
	OK       bool
	Message  string
}

// RenderOptions carry request state into components.
type RenderOptions struct {
	// Calls lists node keys whose contract view was requested with ?call=.
	Calls map[string]bool
	// Path is the page URL, used as the return target of forms.
	Path  string
	Write *WriteOutcome
}

// RenderContext is passed to a component's RenderFunc.
type RenderContext struct {
	Ctx     context.Context
	Key     string
	Node    page.Node
	Props   Props
	Data    interface{}
	DataErr error
	Options RenderOptions

	renderer *Renderer
	doc      *page.Document
	fetched  map[string]prefetchResult
	depth    int
}

// Zone renders the nodes dropped into the named zone of this node.
func (rc *RenderContext) Zone(name string) template.HTML {
	id := rc.Node.ID()
	if id == "" || rc.depth >= maxZoneDepth {
		return ""
	}
	zoneKey := id + ":" + name
	var buf bytes.Buffer
	for i, child := range rc.doc.Zone(id, name) {
		buf.WriteString(string(rc.renderer.renderNode(rc.Ctx, rc.doc, child, nodeKey(zoneKey, i, child), rc.fetched, rc.Options, rc.depth+1)))
	}
	return template.HTML(buf.String())
}

type prefetchResult struct {
	data interface{}
	err  error
}

// Renderer 把页面文档渲染为 HTML，单个组件的失败不会影响整页。
type Renderer struct {
	registry *Registry
}

// NewRenderer renders with the components of registry.
func NewRenderer(registry *Registry) *Renderer {
	return &Renderer{registry: registry}
}

// Registry returns the component registry.
func (r *Renderer) Registry() *Registry {
	return r.registry
}

// Render prefetches contract-backed nodes concurrently, then renders content in order.
func (r *Renderer) Render(ctx context.Context, doc *page.Document, opts RenderOptions) (template.HTML, error) {
	if doc == nil {
		return "", nil
	}
	fetched, err := r.prefetch(ctx, doc, opts)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for i, node := range doc.Content {
		buf.WriteString(string(r.renderNode(ctx, doc, node, nodeKey("content", i, node), fetched, opts, 0)))
	}
	return template.HTML(buf.String()), nil
}

type pendingFetch struct {
	key   string
	props Props
	fetch PrefetchFunc
}

func (r *Renderer) prefetch(ctx context.Context, doc *page.Document, opts RenderOptions) (map[string]prefetchResult, error) {
	var jobs []pendingFetch
	collect := func(parent string, nodes []page.Node) {
		for i, node := range nodes {
			c, ok := r.registry.Lookup(node.Type)
			if !ok || c.Prefetch == nil {
				continue
			}
			jobs = append(jobs, pendingFetch{
				key:   nodeKey(parent, i, node),
				props: mergeProps(c.Defaults, node.Props),
				fetch: c.Prefetch,
			})
		}
	}
	collect("content", doc.Content)
	zones := make([]string, 0, len(doc.Zones))
	for zoneKey := range doc.Zones {
		zones = append(zones, zoneKey)
	}
	sort.Strings(zones)
	for _, zoneKey := range zones {
		collect(zoneKey, doc.Zones[zoneKey])
	}

	results := make(map[string]prefetchResult, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchParallel)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			data, err := safePrefetch(gctx, job, opts)
			mu.Lock()
			results[job.key] = prefetchResult{data: data, err: err}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}

func safePrefetch(ctx context.Context, job pendingFetch, opts RenderOptions) (data interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[PAGE] prefetch %s panicked: %v", job.key, rec)
			data, err = nil, fmt.Errorf("%v", rec)
		}
	}()
	return job.fetch(ctx, job.props, opts, job.key)
}

func (r *Renderer) renderNode(ctx context.Context, doc *page.Document, node page.Node, key string, fetched map[string]prefetchResult, opts RenderOptions, depth int) (out template.HTML) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[PAGE] render %s (%s) panicked: %v", key, node.Type, rec)
			out = errorBlock(fmt.Sprintf("%s failed to render", node.Type))
		}
	}()

	c, ok := r.registry.Lookup(node.Type)
	if !ok {
		return noticeBlock(fmt.Sprintf("Unknown component %q", node.Type))
	}

	rc := &RenderContext{
		Ctx:      ctx,
		Key:      key,
		Node:     node,
		Props:    mergeProps(c.Defaults, node.Props),
		Options:  opts,
		renderer: r,
		doc:      doc,
		fetched:  fetched,
		depth:    depth,
	}
	if res, ok := fetched[key]; ok {
		rc.Data, rc.DataErr = res.data, res.err
	}

	html, err := c.Render(rc)
	if err != nil {
		return errorBlock(err.Error())
	}
	return html
}

func nodeKey(parent string, index int, node page.Node) string {
	if id := node.ID(); id != "" {
		return id
	}
	return parent + "/" + strconv.Itoa(index)
}

func errorBlock(message string) template.HTML {
	return executeBlock("error", message)
}

func noticeBlock(message string) template.HTML {
	return executeBlock("notice", message)
}
