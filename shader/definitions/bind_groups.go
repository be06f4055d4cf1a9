package definitions

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-wgsl/common"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoEntryPoint is returned when a pipeline stage names an entry point the
	// module does not declare for that stage.
	ErrNoEntryPoint = errors.New("entry point not found")

	// ErrAmbiguousEntryPoint is returned when a pipeline stage leaves the entry point
	// name empty and the module declares more than one entry point for that stage.
	ErrAmbiguousEntryPoint = errors.New("ambiguous entry point")
)

// ProgrammableStage selects the entry point of one pipeline stage. An empty
// EntryPoint selects the module's only entry point for the stage.
type ProgrammableStage struct {
	EntryPoint string
}

// PipelineDescriptor lists the active stages of a pipeline. Nil stages are inactive.
type PipelineDescriptor struct {
	Vertex   *ProgrammableStage
	Fragment *ProgrammableStage
	Compute  *ProgrammableStage
}

// MakeBindGroupLayoutDescriptors derives one bind group layout descriptor per group
// from the resources used by the pipeline's active entry points. A resource used by
// several stages is visible to all of them. The result is indexed by group number;
// groups below the highest used group that have no resources get an empty
// descriptor. External textures have no bind group layout entry and are skipped.
//
// Parameters:
//   - defs: the module's data definitions
//   - desc: the active pipeline stages
//
// Returns:
//   - []wgpu.BindGroupLayoutDescriptor: layout descriptors indexed by group
//   - error: ErrNoEntryPoint or ErrAmbiguousEntryPoint if a stage cannot be resolved
func MakeBindGroupLayoutDescriptors(defs *ShaderDataDefinitions, desc PipelineDescriptor) ([]wgpu.BindGroupLayoutDescriptor, error) {
	stages := []struct {
		stage wgpu.ShaderStage
		ps    *ProgrammableStage
	}{
		{wgpu.ShaderStageVertex, desc.Vertex},
		{wgpu.ShaderStageFragment, desc.Fragment},
		{wgpu.ShaderStageCompute, desc.Compute},
	}

	type slot struct{ group, binding uint32 }
	entries := make(map[slot]*wgpu.BindGroupLayoutEntry)
	maxGroup := -1

	for _, s := range stages {
		if s.ps == nil {
			continue
		}
		ep, err := selectEntryPoint(defs, s.stage, s.ps.EntryPoint)
		if err != nil {
			return nil, err
		}
		for _, res := range ep.Resources {
			key := slot{res.Group, res.Binding}
			if entry, ok := entries[key]; ok {
				entry.Visibility |= s.stage
				continue
			}
			entry, ok := classifyResource(defs, res, s.stage)
			if !ok {
				continue
			}
			entries[key] = &entry
			maxGroup = max(maxGroup, int(res.Group))
		}
	}

	groups := make([][]wgpu.BindGroupLayoutEntry, maxGroup+1)
	for key, entry := range entries {
		groups[key.group] = append(groups[key.group], *entry)
	}

	result := make([]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			return group[i].Binding < group[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: group}
	}
	return result, nil
}

// selectEntryPoint resolves the entry point a stage runs. Candidates are visited in
// name order so an ambiguity error always names the same two entry points.
func selectEntryPoint(defs *ShaderDataDefinitions, stage wgpu.ShaderStage, name string) (*EntryPointDefinition, error) {
	if name != "" {
		ep, ok := defs.EntryPoints[name]
		if !ok || ep.Stage != stage {
			return nil, fmt.Errorf("%w: %s entry point %q", ErrNoEntryPoint, stageName(stage), name)
		}
		return ep, nil
	}

	var found *EntryPointDefinition
	for _, key := range common.SortedKeys(defs.EntryPoints) {
		ep := defs.EntryPoints[key]
		if ep.Stage != stage {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s entry points %q and %q", ErrAmbiguousEntryPoint, stageName(stage), found.Name, ep.Name)
		}
		found = ep
	}
	if found == nil {
		return nil, fmt.Errorf("%w: no %s entry point", ErrNoEntryPoint, stageName(stage))
	}
	return found, nil
}

func stageName(stage wgpu.ShaderStage) string {
	switch stage {
	case wgpu.ShaderStageVertex:
		return "vertex"
	case wgpu.ShaderStageFragment:
		return "fragment"
	case wgpu.ShaderStageCompute:
		return "compute"
	}
	return "unknown"
}

// classifyResource builds a single wgpu.BindGroupLayoutEntry for a resource used by
// an entry point. The resource category is taken from the definitions map that holds
// the resource's name.
//
// Parameters:
//   - defs: the module's data definitions
//   - res: the resource usage recorded on the entry point
//   - visibility: the shader stage visibility flag
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: a populated layout entry for the resource
//   - bool: false if the resource has no bind group layout entry
func classifyResource(defs *ShaderDataDefinitions, res ResourceUsage, visibility wgpu.ShaderStage) (wgpu.BindGroupLayoutEntry, bool) {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    res.Binding,
		Visibility: visibility,
	}

	if v, ok := defs.Uniforms[res.Name]; ok {
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = minBindingSize(v)
		return entry, true
	}
	if v, ok := defs.Storages[res.Name]; ok {
		if v.Access == "read_write" {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		} else {
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		}
		entry.Buffer.MinBindingSize = minBindingSize(v)
		return entry, true
	}
	if s, ok := defs.Samplers[res.Name]; ok {
		if s.Type == "sampler_comparison" {
			entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
		} else {
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		}
		return entry, true
	}
	if t, ok := defs.StorageTextures[res.Name]; ok {
		classifyStorageTexture(t, &entry)
		return entry, true
	}
	if t, ok := defs.Textures[res.Name]; ok {
		if strings.HasPrefix(t.Type, "texture_depth_") {
			classifyDepthTexture(t, &entry)
		} else {
			classifySampledTexture(t, &entry)
		}
		return entry, true
	}
	return entry, false
}

// classifySampledTexture populates the texture layout fields for a sampled texture
// such as texture_2d<f32>.
func classifySampledTexture(t *ResourceDefinition, entry *wgpu.BindGroupLayoutEntry) {
	if info, ok := wgslSampledTextureMap[t.Type]; ok {
		entry.Texture.ViewDimension = info.viewDimension
		entry.Texture.Multisampled = info.multisampled
	}
	if st, ok := wgslSampleTypeMap[t.Format]; ok {
		entry.Texture.SampleType = st
	}
}

// classifyDepthTexture populates the texture layout fields for a depth texture.
func classifyDepthTexture(t *ResourceDefinition, entry *wgpu.BindGroupLayoutEntry) {
	entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
	if info, ok := wgslSampledTextureMap[t.Type]; ok {
		entry.Texture.ViewDimension = info.viewDimension
		entry.Texture.Multisampled = info.multisampled
	}
}

// classifyStorageTexture populates the storage texture layout fields for a type such
// as texture_storage_2d<rgba8unorm, write>.
func classifyStorageTexture(t *ResourceDefinition, entry *wgpu.BindGroupLayoutEntry) {
	if dim, ok := wgslStorageTextureDimMap[t.Type]; ok {
		entry.StorageTexture.ViewDimension = dim
	}
	if format, ok := wgslTexelFormatMap[t.Format]; ok {
		entry.StorageTexture.Format = format
	}
	if access, ok := wgslStorageAccessMap[t.Access]; ok {
		entry.StorageTexture.Access = access
	}
}

// minBindingSize is the smallest buffer that can back the variable: its size, or
// for a runtime-sized variable the fixed prefix plus one element.
func minBindingSize(v *VariableDefinition) uint64 {
	root := v.Root()
	if root == nil {
		return 0
	}
	arr, ok := unsizedArray(root)
	if !ok {
		return v.Size
	}
	elem, err := sizeAndAlignOf(arr)
	if err != nil {
		return v.Size
	}
	return max(v.Size, arr.ByteOffset()-root.ByteOffset()+elem.Size)
}
