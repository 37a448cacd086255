package universe

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"GapSentinel/internal/model"
)

// fileFormat is the on-disk layout of the universe file.
type fileFormat struct {
	Tickers []model.TickerInfo `yaml:"tickers"`
}

// FileProvider reads the universe from a YAML file. The file is loaded on
// first use and re-read by Refresh.
type FileProvider struct {
	path string

	mu      sync.RWMutex
	loaded  bool
	symbols []string
	info    map[string]model.TickerInfo
}

// NewFileProvider creates a provider for the file at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) Universe(ctx context.Context) ([]string, error) {
	if err := p.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.symbols...), nil
}

func (p *FileProvider) InfoMap(ctx context.Context) (map[string]model.TickerInfo, error) {
	if err := p.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]model.TickerInfo, len(p.info))
	for k, v := range p.info {
		out[k] = v
	}
	return out, nil
}

// Refresh re-reads the file and reports how the symbol set changed.
func (p *FileProvider) Refresh(_ context.Context) (RefreshResult, error) {
	symbols, info, err := load(p.path)
	if err != nil {
		return RefreshResult{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	res := RefreshResult{Success: true, Count: len(symbols), RefreshedAt: time.Now()}
	for s := range info {
		if _, ok := p.info[s]; !ok {
			res.Added++
		}
	}
	for s := range p.info {
		if _, ok := info[s]; !ok {
			res.Removed++
		}
	}
	p.symbols, p.info, p.loaded = symbols, info, true
	log.Printf("[INFO] universe refreshed: %d symbols (+%d -%d)", res.Count, res.Added, res.Removed)
	return res, nil
}

func (p *FileProvider) ensureLoaded(ctx context.Context) error {
	p.mu.RLock()
	loaded := p.loaded
	p.mu.RUnlock()
	if loaded {
		return nil
	}
	_, err := p.Refresh(ctx)
	return err
}

// load parses the file, upper-casing symbols and dropping duplicates while
// keeping the first occurrence's position.
func load(path string) ([]string, map[string]model.TickerInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read universe: %w", err)
	}
	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, nil, fmt.Errorf("parse universe: %w", err)
	}
	if len(ff.Tickers) == 0 {
		return nil, nil, fmt.Errorf("universe %s is empty", path)
	}

	symbols := make([]string, 0, len(ff.Tickers))
	info := make(map[string]model.TickerInfo, len(ff.Tickers))
	for _, t := range ff.Tickers {
		t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
		if t.Symbol == "" {
			continue
		}
		if _, dup := info[t.Symbol]; dup {
			continue
		}
		symbols = append(symbols, t.Symbol)
		info[t.Symbol] = t
	}
	return symbols, info, nil
}
