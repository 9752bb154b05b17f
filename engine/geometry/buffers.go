package geometry

import (
	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/cache"
	"github.com/Carmen-Shannon/oxy-mesh/engine/device"

	"github.com/sirupsen/logrus"
)

// AttributeBuffer is the device-side copy of one enabled attribute.
type AttributeBuffer struct {
	Name     AttributeName
	Type     ComponentType
	Buffer   device.BufferHandle
	Size     int
	Semantic string
}

// IndexBuffer is the device-side copy of the index array. Count is the number of indices.
type IndexBuffer struct {
	Buffer device.BufferHandle
	Count  int
}

// BufferChunk holds every device buffer a mesh owns in one context. AttributeBuffers follow
// the EnabledAttributes order of the last successful rebuild.
type BufferChunk struct {
	AttributeBuffers []AttributeBuffer
	IndexBuffer      *IndexBuffer
}

// AttributeBuffer returns the buffer record for name, or nil if the channel was not uploaded.
func (c *BufferChunk) AttributeBuffer(name AttributeName) *AttributeBuffer {
	for i := range c.AttributeBuffers {
		if c.AttributeBuffers[i].Name == name {
			return &c.AttributeBuffers[i]
		}
	}
	return nil
}

// Handles returns every handle owned by the chunk, attribute buffers first.
func (c *BufferChunk) Handles() []device.BufferHandle {
	handles := make([]device.BufferHandle, 0, len(c.AttributeBuffers)+1)
	for _, b := range c.AttributeBuffers {
		handles = append(handles, b.Buffer)
	}
	if c.IndexBuffer != nil {
		handles = append(handles, c.IndexBuffer.Buffer)
	}
	return handles
}

func (g *staticGeometry) BufferChunk(dev device.Device) (*BufferChunk, error) {
	id := dev.ID()
	chunk, state := g.chunks.Get(id)
	if state == cache.StateFresh {
		return chunk, nil
	}
	if chunk == nil {
		chunk = &BufferChunk{}
		g.chunks.Put(id, chunk)
	}

	if err := g.updateBuffers(dev, chunk); err != nil {
		g.chunks.MarkDirty(id)
		g.logger.WithFields(logrus.Fields{
			"context": id,
			"error":   err,
		}).Warn("[Geometry] buffer chunk rebuild failed")
		return nil, err
	}

	g.chunks.MarkFresh(id)
	g.logger.WithFields(logrus.Fields{
		"context": id,
		"buffers": len(chunk.AttributeBuffers),
		"indexed": chunk.IndexBuffer != nil,
	}).Debug("[Geometry] rebuilt buffer chunk")
	return chunk, nil
}

// updateBuffers re-uploads every enabled attribute and the index array into chunk. Handles are
// recorded in chunk as soon as they are created so a failure part way through never leaks them.
func (g *staticGeometry) updateBuffers(dev device.Device, chunk *BufferChunk) error {
	enabled, err := g.EnabledAttributes()
	if err != nil {
		return err
	}
	if g.IsIndexed() {
		if err := g.checkFaces("buffer chunk", g.VertexCount()); err != nil {
			return err
		}
	}

	id := dev.ID()
	byName := make(map[AttributeName]device.BufferHandle, len(chunk.AttributeBuffers))
	for _, b := range chunk.AttributeBuffers {
		byName[b.Name] = b.Buffer
	}

	for _, attr := range enabled {
		handle, ok := byName[attr.Name]
		if !ok {
			handle, err = dev.CreateBuffer()
			if err != nil {
				return &DeviceResourceError{Op: "create buffer", Context: id, Attribute: attr.Name.String(), Err: err}
			}
			byName[attr.Name] = handle
			chunk.AttributeBuffers = append(chunk.AttributeBuffers, AttributeBuffer{
				Name:     attr.Name,
				Type:     attr.Type,
				Buffer:   handle,
				Size:     attr.Size,
				Semantic: attr.Semantic,
			})
		}
		if err := dev.BindBuffer(device.TargetVertexAttribute, handle); err != nil {
			return &DeviceResourceError{Op: "bind buffer", Context: id, Attribute: attr.Name.String(), Err: err}
		}
		if err := dev.BufferData(device.TargetVertexAttribute, common.SliceToBytes(attr.Value), g.hint); err != nil {
			return &DeviceResourceError{Op: "upload buffer", Context: id, Attribute: attr.Name.String(), Err: err}
		}
	}

	// Reorder into enabled order and release buffers for channels that are no longer enabled.
	ordered := make([]AttributeBuffer, 0, len(enabled))
	kept := make(map[AttributeName]bool, len(enabled))
	for _, attr := range enabled {
		ordered = append(ordered, AttributeBuffer{
			Name:     attr.Name,
			Type:     attr.Type,
			Buffer:   byName[attr.Name],
			Size:     attr.Size,
			Semantic: attr.Semantic,
		})
		kept[attr.Name] = true
	}
	for _, b := range chunk.AttributeBuffers {
		if !kept[b.Name] {
			dev.DeleteBuffer(b.Buffer)
		}
	}
	chunk.AttributeBuffers = ordered

	if !g.IsIndexed() {
		if chunk.IndexBuffer != nil {
			dev.DeleteBuffer(chunk.IndexBuffer.Buffer)
			chunk.IndexBuffer = nil
		}
		return nil
	}

	if chunk.IndexBuffer == nil {
		handle, err := dev.CreateBuffer()
		if err != nil {
			return &DeviceResourceError{Op: "create index buffer", Context: id, Err: err}
		}
		chunk.IndexBuffer = &IndexBuffer{Buffer: handle}
	}
	if err := dev.BindBuffer(device.TargetIndex, chunk.IndexBuffer.Buffer); err != nil {
		return &DeviceResourceError{Op: "bind index buffer", Context: id, Err: err}
	}
	if err := dev.BufferData(device.TargetIndex, common.SliceToBytes(g.faces), g.hint); err != nil {
		return &DeviceResourceError{Op: "upload index buffer", Context: id, Err: err}
	}
	chunk.IndexBuffer.Count = len(g.faces)
	return nil
}

func (g *staticGeometry) Dispose(dev device.Device) {
	id := dev.ID()
	chunk, ok := g.chunks.Delete(id)
	if !ok || chunk == nil {
		return
	}
	handles := chunk.Handles()
	for _, h := range handles {
		dev.DeleteBuffer(h)
	}
	g.logger.WithFields(logrus.Fields{
		"context": id,
		"buffers": len(handles),
	}).Debug("[Geometry] disposed buffer chunk")
}

func (g *staticGeometry) Contexts() []device.ContextID {
	return cache.SortedKeys(g.chunks, func(a, b device.ContextID) bool { return a < b })
}

func (g *staticGeometry) ChunkState(id device.ContextID) cache.State {
	return g.chunks.State(id)
}
