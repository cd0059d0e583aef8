package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithGroup sets the @group index the provider feeds.
//
// Parameters:
//   - group: the bind group index
//
// Returns:
//   - BindGroupProviderOption: a function that sets the group index for this provider
func WithGroup(group int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.group = group
	}
}

// WithBindGroupLayout sets the bind group layout for this provider.
//
// Parameters:
//   - bgl: the bind group layout to use for this provider
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind group layout for this provider
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
	}
}

// WithStaging allocates zeroed staging memory for a uniform binding.
//
// Parameters:
//   - binding: the binding index
//   - size: the buffer size in bytes
//
// Returns:
//   - BindGroupProviderOption: a function that allocates staging memory for the binding
func WithStaging(binding int, size uint64) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.staging[binding] = make([]byte, size)
	}
}
