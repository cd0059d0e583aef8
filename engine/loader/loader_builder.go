package loader

import (
	"github.com/Carmen-Shannon/oxy-tex/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-tex/engine/texture"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers sets the number of decode workers used by LoadTextures.
//
// Parameters:
//   - n: the worker count, defaults to runtime.NumCPU()
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = n
	}
}

// WithRequireFullMipChain rejects textures whose mip chain does not reach 1x1.
//
// Returns:
//   - LoaderBuilderOption: a function that applies the requirement to a loader
func WithRequireFullMipChain() LoaderBuilderOption {
	return func(l *loader) {
		l.textureOptions = append(l.textureOptions, texture.WithRequireFullMipChain())
	}
}

// WithTextureOptions appends texture options applied to every decoded texture.
func WithTextureOptions(options ...texture.CompressedTextureBuilderOption) LoaderBuilderOption {
	return func(l *loader) {
		l.textureOptions = append(l.textureOptions, options...)
	}
}

// WithCompiler sets the compiler used by LoadShader.
func WithCompiler(c shader.Compiler) LoaderBuilderOption {
	return func(l *loader) {
		l.compiler = c
	}
}

// WithProfiler records decoded file sizes on the given profiler.
func WithProfiler(p *profiler.Profiler) LoaderBuilderOption {
	return func(l *loader) {
		l.profiler = p
	}
}

// WithTexture is an option builder that pre-populates the texture cache.
//
// Parameters:
//   - key: the cache key for the texture
//   - tex: the texture to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the texture option to a loader
func WithTexture(key string, tex texture.CompressedTexture) LoaderBuilderOption {
	return func(l *loader) {
		l.textureCache[key] = tex
	}
}
