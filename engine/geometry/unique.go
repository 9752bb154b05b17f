package geometry

func (g *staticGeometry) IsUniqueVertex() bool {
	if !g.IsIndexed() {
		return true
	}
	return g.VertexCount() == len(g.faces)
}

// GenerateUniqueVertex rewrites the mesh so every face slot owns a vertex. The first use of a
// vertex keeps it; each later use gets a copy at the tail. Vertices no face refers to are
// dropped, so len(Faces) == VertexCount afterwards.
func (g *staticGeometry) GenerateUniqueVertex() error {
	const op = "generate unique vertex"

	if !g.IsIndexed() {
		return nil
	}
	enabled, err := g.EnabledAttributes()
	if err != nil {
		return err
	}
	vertexCount := g.VertexCount()
	if err := g.checkFaces(op, vertexCount); err != nil {
		return err
	}

	uses := make([]int, vertexCount)
	for _, v := range g.faces {
		uses[v]++
	}
	repeats, unreferenced := 0, 0
	for _, n := range uses {
		switch {
		case n == 0:
			unreferenced++
		case n > 1:
			repeats += n - 1
		}
	}
	if repeats == 0 && unreferenced == 0 {
		return nil
	}

	// remap[v] is the compacted index of the first use of v; copies start after the last of them.
	remap := make([]uint32, vertexCount)
	cursor := uint32(0)
	for v, n := range uses {
		if n > 0 {
			remap[v] = cursor
			cursor++
		}
	}

	newCount := len(g.faces)
	faces := make([]uint32, len(g.faces))
	source := make([]uint32, newCount)
	seen := make([]bool, vertexCount)
	for i, v := range g.faces {
		if !seen[v] {
			seen[v] = true
			faces[i] = remap[v]
		} else {
			faces[i] = cursor
			cursor++
		}
		source[faces[i]] = v
	}

	for _, attr := range enabled {
		size := attr.Size
		values := make([]float32, newCount*size)
		for dst, src := range source {
			copy(values[dst*size:(dst+1)*size], attr.Value[int(src)*size:(int(src)+1)*size])
		}
		attr.Value = values
	}
	g.faces = faces

	g.logger.WithField("vertices", newCount).Debug("[Geometry] split shared vertices")
	g.Dirty()
	return nil
}
