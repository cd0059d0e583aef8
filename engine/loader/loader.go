package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-tex/common"
	"github.com/Carmen-Shannon/oxy-tex/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-tex/engine/texture"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// LoaderBackendType identifies a texture container format backend.
type LoaderBackendType int

const (
	// BackendTypeDDS selects the DirectDraw Surface backend.
	BackendTypeDDS LoaderBackendType = iota
)

// maxBatch is the number of decode tasks queued on the worker pool at once.
const maxBatch = 256

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	textureCache map[string]texture.CompressedTexture
	shaderCache  map[string]shader.Shader

	backends map[string]loaderBackend

	workers        int
	pool           worker.DynamicWorkerPool
	textureOptions []texture.CompressedTextureBuilderOption
	compiler       shader.Compiler
	profiler       *profiler.Profiler
}

// Loader loads compressed textures and WGSL shaders from disk and caches them.
// Texture files are identified by content, not by extension, and decoded on the CPU only.
// Batches of textures are decoded in parallel on a worker pool.
type Loader interface {
	// LoadTexture decodes a texture file and caches the result by path.
	// If the texture is already cached, the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the texture
	//
	// Returns:
	//   - texture.CompressedTexture: the decoded texture
	//   - error: a read error, an *texture.UnsupportedFormatError for unrecognized content, or a decode error
	LoadTexture(path string) (texture.CompressedTexture, error)

	// LoadTextureReader decodes a texture from a reader and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key and label for the texture
	//   - r: the reader providing the file contents
	//
	// Returns:
	//   - texture.CompressedTexture: the decoded texture
	//   - error: error if reading or decoding fails
	LoadTextureReader(name string, r io.Reader) (texture.CompressedTexture, error)

	// LoadTextures decodes several texture files in parallel. Every path is attempted; the
	// textures that decoded are returned keyed by path alongside the joined errors of the rest.
	//
	// Parameters:
	//   - paths: the file paths to load
	//
	// Returns:
	//   - map[string]texture.CompressedTexture: the decoded textures keyed by path
	//   - error: the joined errors of the paths that failed, or nil
	LoadTextures(paths ...string) (map[string]texture.CompressedTexture, error)

	// LoadShader reads and compiles a WGSL shader file and caches it by path.
	//
	// Parameters:
	//   - path: the file path to the WGSL source
	//   - shaderType: the stage of the shader
	//
	// Returns:
	//   - shader.Shader: the compiled shader
	//   - error: error if reading, parsing or compiling fails
	LoadShader(path string, shaderType shader.ShaderType) (shader.Shader, error)

	// Texture retrieves a cached texture by name. Returns nil if not found.
	Texture(name string) texture.CompressedTexture

	// Textures returns a copy of the texture cache.
	Textures() map[string]texture.CompressedTexture

	// Shader retrieves a cached shader by path. Returns nil if not found.
	Shader(path string) shader.Shader

	// Evict removes a texture or shader from the caches.
	//
	// Parameters:
	//   - name: the cache key to remove
	//
	// Returns:
	//   - bool: true if anything was removed
	Evict(name string) bool
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the given backends and options applied.
// Without backend types the DDS backend is used.
//
// Parameters:
//   - backendTypes: the container formats to accept
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(backendTypes []LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		textureCache: make(map[string]texture.CompressedTexture),
		shaderCache:  make(map[string]shader.Shader),
		backends:     make(map[string]loaderBackend),
		workers:      runtime.NumCPU(),
	}

	if len(backendTypes) == 0 {
		backendTypes = []LoaderBackendType{BackendTypeDDS}
	}
	for _, bt := range backendTypes {
		switch bt {
		case BackendTypeDDS:
			b := newDDSLoaderBackend()
			l.backends[b.Type().Extension] = b
		}
	}

	for _, option := range options {
		option(l)
	}
	if l.workers < 1 {
		l.workers = 1
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, maxBatch, 1*time.Second)
	return l
}

func (l *loader) LoadTexture(path string) (texture.CompressedTexture, error) {
	if cached := l.Texture(path); cached != nil {
		return cached, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	tex, err := l.decode(path, b)
	if err != nil {
		return nil, err
	}
	return l.storeTexture(path, tex), nil
}

func (l *loader) LoadTextureReader(name string, r io.Reader) (texture.CompressedTexture, error) {
	if cached := l.Texture(name); cached != nil {
		return cached, nil
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	tex, err := l.decode(name, buf.Bytes())
	if err != nil {
		return nil, err
	}
	return l.storeTexture(name, tex), nil
}

func (l *loader) LoadTextures(paths ...string) (map[string]texture.CompressedTexture, error) {
	unique := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}

	results := make([]texture.CompressedTexture, len(unique))
	errs := make([]error, len(unique))
	start := time.Now()

	for lo := 0; lo < len(unique); lo += maxBatch {
		hi := min(lo+maxBatch, len(unique))
		var wg sync.WaitGroup
		for i := lo; i < hi; i++ {
			wg.Add(1)
			idx := i // capture for closure
			l.pool.SubmitTask(worker.Task{
				ID: idx,
				Do: func() (any, error) {
					defer wg.Done()
					results[idx], errs[idx] = l.LoadTexture(unique[idx])
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	out := make(map[string]texture.CompressedTexture, len(unique))
	failed := 0
	for i, p := range unique {
		if errs[i] != nil {
			failed++
			continue
		}
		out[p] = results[i]
	}
	common.Logger().Info("textures loaded", "requested", len(unique), "loaded", len(out),
		"failed", failed, "workers", l.workers, "elapsed", time.Since(start))
	return out, errors.Join(errs...)
}

func (l *loader) LoadShader(path string, shaderType shader.ShaderType) (shader.Shader, error) {
	if cached := l.Shader(path); cached != nil {
		return cached, nil
	}

	key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	opts := []shader.ShaderBuilderOption{shader.WithSourcePath(path)}
	if l.compiler != nil {
		opts = append(opts, shader.WithCompiler(l.compiler))
	}
	s, err := shader.NewShader(key, shaderType, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.shaderCache[path]; ok {
		return existing, nil
	}
	l.shaderCache[path] = s
	return s, nil
}

func (l *loader) Texture(name string) texture.CompressedTexture {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.textureCache[name]
}

func (l *loader) Textures() map[string]texture.CompressedTexture {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]texture.CompressedTexture, len(l.textureCache))
	for k, v := range l.textureCache {
		result[k] = v
	}
	return result
}

func (l *loader) Shader(path string) shader.Shader {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.shaderCache[path]
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, hasTex := l.textureCache[name]
	_, hasShader := l.shaderCache[name]
	delete(l.textureCache, name)
	delete(l.shaderCache, name)
	return hasTex || hasShader
}

// decode identifies the container by its content and decodes it with the matching backend.
func (l *loader) decode(name string, b []byte) (texture.CompressedTexture, error) {
	kind, err := filetype.Match(b)
	if err != nil {
		kind = types.Unknown
	}
	backend, ok := l.backends[kind.Extension]
	if !ok {
		format := kind.Extension
		if kind == types.Unknown {
			format = "unrecognized content"
		}
		return nil, fmt.Errorf("failed to load %s: %w", name, &texture.UnsupportedFormatError{Format: format})
	}

	opts := append([]texture.CompressedTextureBuilderOption{texture.WithLabel(name)}, l.textureOptions...)
	tex, err := backend.Decode(b, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	if l.profiler != nil {
		l.profiler.RecordDecode(len(b))
	}
	common.Logger().Debug("texture decoded", "name", name, "type", kind.Extension,
		"format", tex.Format().String(), "levels", tex.MipmapCount(), "bytes", tex.ByteSize())
	return tex, nil
}

// storeTexture caches tex under name unless another goroutine stored one first, and returns the cached value.
func (l *loader) storeTexture(name string, tex texture.CompressedTexture) texture.CompressedTexture {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.textureCache[name]; ok {
		return existing
	}
	l.textureCache[name] = tex
	return tex
}
