package raster

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dost-atlas/mapview"
)

const (
	tileMaxConcurrent = 8
	tileMemoryMax     = 256
)

// TileSource returns decoded tiles for the requested keys. Missing tiles are
// simply absent from the result; the surface leaves their area blank.
type TileSource interface {
	Tiles(ctx context.Context, layer mapview.BaseLayerDef, zoom int, keys []TileKey) map[TileKey]image.Image
}

// NoTiles draws no imagery. Useful for tests and air-gapped deployments.
type NoTiles struct{}

func (NoTiles) Tiles(context.Context, mapview.BaseLayerDef, int, []TileKey) map[TileKey]image.Image {
	return nil
}

// HTTPTiles fetches tiles from the base layer's URL template. Decoded tiles
// are kept in process memory only and dropped when the map grows too large.
type HTTPTiles struct {
	client    *http.Client
	userAgent string
	logger    zerolog.Logger

	mu    sync.Mutex
	cache map[string]image.Image
	rr    int
}

func NewHTTPTiles(userAgent string, logger zerolog.Logger) *HTTPTiles {
	transport := &http.Transport{
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: tileMaxConcurrent,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPTiles{
		client:    &http.Client{Timeout: 12 * time.Second, Transport: transport},
		userAgent: userAgent,
		logger:    logger.With().Str("component", "tiles").Logger(),
		cache:     make(map[string]image.Image),
	}
}

func (t *HTTPTiles) Tiles(ctx context.Context, layer mapview.BaseLayerDef, zoom int, keys []TileKey) map[TileKey]image.Image {
	result := make(map[TileKey]image.Image, len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tileMaxConcurrent)
	for _, k := range keys {
		g.Go(func() error {
			img, err := t.tile(gctx, layer, zoom, k)
			if err != nil {
				t.logger.Debug().Err(err).Int("z", zoom).Int("x", k.X).Int("y", k.Y).Msg("tile unavailable")
				return nil
			}
			mu.Lock()
			result[k] = img
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return result
}

func (t *HTTPTiles) tile(ctx context.Context, layer mapview.BaseLayerDef, zoom int, k TileKey) (image.Image, error) {
	key := fmt.Sprintf("%s/%d/%d/%d", layer.ID, zoom, k.X, k.Y)
	t.mu.Lock()
	if img, ok := t.cache[key]; ok {
		t.mu.Unlock()
		return img, nil
	}
	t.rr++
	sub := t.rr
	t.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, layer.TileURL(zoom, k.X, k.Y, sub), nil)
	if err != nil {
		return nil, err
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile fetch failed: %s", resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if len(t.cache) >= tileMemoryMax {
		t.cache = make(map[string]image.Image)
	}
	t.cache[key] = img
	t.mu.Unlock()
	return img, nil
}
