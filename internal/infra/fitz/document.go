// Package fitz backs the domain document interfaces with MuPDF via go-fitz.
package fitz

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"pdf-view-engine/internal/domain"
	apperrors "pdf-view-engine/pkg/errors"

	gofitz "github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/semaphore"
)

// baseDPI is the PDF point resolution; scale 1.0 renders at this DPI.
const baseDPI = 72.0

// Opener implements domain.DocumentOpener. Source identifiers are either
// local file paths or http(s) URLs.
type Opener struct {
	client *http.Client
	logger domain.Logger
}

// NewOpener creates an opener that fetches remote sources with the given
// client (http.DefaultClient when nil).
func NewOpener(client *http.Client, logger domain.Logger) *Opener {
	if client == nil {
		client = http.DefaultClient
	}
	return &Opener{client: client, logger: logger}
}

// Open fetches, parses and wraps the source. Failures surface as classified
// load errors where the cause is known; everything else is left for the
// loader's classifier.
func (o *Opener) Open(ctx context.Context, sourceID string) (domain.DocumentHandle, error) {
	var (
		doc *gofitz.Document
		err error
	)

	if strings.HasPrefix(sourceID, "http://") || strings.HasPrefix(sourceID, "https://") {
		doc, err = o.openRemote(ctx, sourceID)
	} else {
		doc, err = o.openLocal(sourceID)
	}
	if err != nil {
		return nil, err
	}

	return newDocument(doc, sourceID)
}

func (o *Opener) openLocal(path string) (*gofitz.Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewCorruptedError(fmt.Sprintf("source not readable: %s", path), err)
	}
	doc, err := gofitz.New(path)
	if err != nil {
		return nil, classifyFitzError(err)
	}
	return doc, nil
}

func (o *Opener) openRemote(ctx context.Context, url string) (*gofitz.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewUnknownError("invalid source url", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to fetch document", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, apperrors.NewPermissionError(fmt.Sprintf("source returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return nil, apperrors.NewNetworkError(fmt.Sprintf("source returned %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read document body", err)
	}

	doc, err := gofitz.NewFromMemory(data)
	if err != nil {
		return nil, classifyFitzError(err)
	}
	return doc, nil
}

// classifyFitzError maps go-fitz open failures onto the load taxonomy.
func classifyFitzError(err error) error {
	switch {
	case errors.Is(err, gofitz.ErrNeedsPassword):
		return apperrors.NewPermissionError("document is password protected", err)
	case errors.Is(err, gofitz.ErrOpenDocument), errors.Is(err, gofitz.ErrOpenMemory):
		return apperrors.NewCorruptedError("document failed to parse", err)
	default:
		return err
	}
}

// Document wraps one parsed MuPDF document. MuPDF handles are not safe for
// concurrent use, so every rasterization serializes on a weighted semaphore;
// cancellation while queued is honored through the task context.
type Document struct {
	mu        sync.Mutex
	fz        *gofitz.Document
	sem       *semaphore.Weighted
	sourceID  string
	pageCount int
	meta      domain.DocumentMetadata
	closed    bool
}

func newDocument(fz *gofitz.Document, sourceID string) (*Document, error) {
	d := &Document{
		fz:        fz,
		sem:       semaphore.NewWeighted(1),
		sourceID:  sourceID,
		pageCount: fz.NumPage(),
	}

	meta := fz.Metadata()
	d.meta = domain.DocumentMetadata{
		Title:     meta["title"],
		Author:    meta["author"],
		PageCount: d.pageCount,
	}
	if d.pageCount > 0 {
		if bound, err := fz.Bound(0); err == nil {
			d.meta.PageWidth = float64(bound.Dx())
			d.meta.PageHeight = float64(bound.Dy())
		}
	}

	return d, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.pageCount
}

// Metadata returns the descriptive metadata extracted at open time.
func (d *Document) Metadata() domain.DocumentMetadata {
	return d.meta
}

// Page returns the rasterization primitive for the 1-based page number.
func (d *Document) Page(number int) (domain.Page, error) {
	if number < 1 || number > d.pageCount {
		return nil, fmt.Errorf("page %d out of range [1, %d]", number, d.pageCount)
	}
	return &page{doc: d, number: number}, nil
}

// Close releases the MuPDF handle. It waits for any rasterization already
// inside MuPDF to finish; queued ones fail with a closed-document error.
func (d *Document) Close() error {
	if err := d.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer d.sem.Release(1)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.fz.Close()
}

func (d *Document) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type page struct {
	doc    *Document
	number int
}

// Number returns the 1-based page number.
func (p *page) Number() int {
	return p.number
}

// Size returns the page dimensions in points, or zeros when the document is
// no longer available.
func (p *page) Size() (float64, float64) {
	if err := p.doc.sem.Acquire(context.Background(), 1); err != nil {
		return 0, 0
	}
	defer p.doc.sem.Release(1)
	if p.doc.isClosed() {
		return 0, 0
	}
	bound, err := p.doc.fz.Bound(p.number - 1)
	if err != nil {
		return 0, 0
	}
	return float64(bound.Dx()), float64(bound.Dy())
}

// Render rasterizes the page into target at scale. The context is checked
// before entering MuPDF and again before the pixels are committed, so
// superseded tasks never overwrite a newer result.
func (p *page) Render(ctx context.Context, target *domain.Surface, scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("invalid render scale %v", scale)
	}

	if err := p.doc.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	img, err := p.rasterize(scale)
	p.doc.sem.Release(1)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	target.Draw(img)
	return nil
}

// rasterize renders at the requested scale. Below 1.0 MuPDF output gets
// coarse, so render at base resolution and downsample instead.
func (p *page) rasterize(scale float64) (image.Image, error) {
	if p.doc.isClosed() {
		return nil, errors.New("document closed")
	}

	if scale >= 1 {
		img, err := p.doc.fz.ImageDPI(p.number-1, baseDPI*scale)
		if err != nil {
			return nil, err
		}
		return img, nil
	}

	full, err := p.doc.fz.ImageDPI(p.number-1, baseDPI)
	if err != nil {
		return nil, err
	}
	b := full.Bounds()
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), full, b, xdraw.Src, nil)
	return scaled, nil
}
