package geometry

// GenerateBarycentric marks each vertex with the corner it occupies in its triangle:
// corner 0 gets (1,0,0), corner 1 (0,1,0), corner 2 (0,0,1). Indexed meshes are made unique
// first. Non-indexed meshes are treated as consecutive vertex triples.
func (g *staticGeometry) GenerateBarycentric() error {
	const op = "generate barycentric"

	if g.IsIndexed() {
		if err := g.GenerateUniqueVertex(); err != nil {
			return err
		}
	} else {
		positions := g.attributes[AttributePosition].Value
		if positions == nil {
			return preconditionf(op, "position attribute is required")
		}
		if g.VertexCount()%3 != 0 {
			return preconditionf(op, "non-indexed vertex count %d is not a multiple of 3", g.VertexCount())
		}
	}

	vertexCount := g.VertexCount()
	values := g.attributes[AttributeBarycentric].Value
	if len(values) != vertexCount*3 {
		values = make([]float32, vertexCount*3)
	} else {
		clear(values)
	}

	if g.IsIndexed() {
		for i, v := range g.faces {
			values[int(v)*3+i%3] = 1
		}
	} else {
		for v := 0; v < vertexCount; v++ {
			values[v*3+v%3] = 1
		}
	}

	g.attributes[AttributeBarycentric].Value = values
	g.Dirty()
	return nil
}
