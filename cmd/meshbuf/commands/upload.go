package commands

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/batch"
	"github.com/Carmen-Shannon/oxy-mesh/engine/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/geometry"
	"github.com/Carmen-Shannon/oxy-mesh/engine/loader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logging"
	"github.com/Carmen-Shannon/oxy-mesh/engine/profiler"
	"github.com/Carmen-Shannon/oxy-mesh/engine/shapes"
	"github.com/Carmen-Shannon/oxy-mesh/engine/window"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	uploadShape     string
	uploadCount     int
	uploadCells     int
	uploadTangents  bool
	uploadWireframe bool
	uploadTranslate string
	uploadRotate    string
	uploadScale     string
	uploadWindow    bool
	uploadModel     string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Build meshes and upload them to a WebGPU device",
	Long: `Builds --count copies of --shape, or imports every mesh of --model, runs the
selected processing steps on the batch worker pool, then requests a buffer
chunk for every mesh on a WebGPU device. The device is headless unless
--window is given.`,
	Example: `  meshbuf upload --shape sphere --count 64 --tangents
  meshbuf upload --shape box --wireframe --translate 0,2,0 --rotate 0,45,0 --window
  meshbuf upload --model helmet.glb --tangents`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVar(&uploadShape, "shape", "cube", "shape to build: quad, cube, sphere, box or cylinder")
	uploadCmd.Flags().IntVarP(&uploadCount, "count", "n", 1, "number of meshes to build")
	uploadCmd.Flags().IntVar(&uploadCells, "cells", 48, "marching cubes resolution for box and cylinder")
	uploadCmd.Flags().BoolVar(&uploadTangents, "tangents", false, "generate tangents")
	uploadCmd.Flags().BoolVar(&uploadWireframe, "wireframe", false, "split vertices and generate barycentric coordinates")
	uploadCmd.Flags().StringVar(&uploadTranslate, "translate", "", "translate every mesh by x,y,z")
	uploadCmd.Flags().StringVar(&uploadRotate, "rotate", "", "rotate every mesh by x,y,z degrees (applied Y, X, then Z)")
	uploadCmd.Flags().StringVar(&uploadScale, "scale", "", "scale every mesh by x,y,z")
	uploadCmd.Flags().BoolVar(&uploadWindow, "window", false, "open a preview window and create the device against its surface")
	uploadCmd.Flags().StringVar(&uploadModel, "model", "", "import meshes from a .gltf or .glb file instead of building --shape")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.Component("meshbuf")

	var geoms []geometry.StaticGeometry
	if uploadModel != "" {
		geoms, err = loadModel(uploadModel, cfg.GeometryOptions()...)
	} else {
		geoms, err = buildMeshes(uploadShape, uploadCount, uploadCells, cfg.GeometryOptions()...)
	}
	if err != nil {
		return err
	}
	steps, err := buildSteps(uploadTangents, uploadWireframe, transformFlags{
		translate: uploadTranslate,
		rotate:    uploadRotate,
		scale:     uploadScale,
	})
	if err != nil {
		return err
	}

	runner := batch.NewRunner(cfg.RunnerOptions()...)
	defer runner.Close()
	if err := runner.Run(cmd.Context(), geoms, steps...); err != nil {
		return fmt.Errorf("processing meshes: %w", err)
	}

	devOpts := cfg.DeviceOptions()
	var win window.Window
	if uploadWindow {
		win, err = window.NewWindow(window.WithTitle("meshbuf: " + common.Coalesce(uploadModel, uploadShape)))
		if err != nil {
			return err
		}
		defer win.Close()
		devOpts = append(devOpts, device.WithSurfaceSource(win))
	}

	dev, err := device.NewWGPUDevice(devOpts...)
	if err != nil {
		return err
	}
	defer dev.Release()

	prof := profiler.NewProfiler()
	sum, err := upload(dev, geoms, prof)
	defer dispose(dev, geoms)
	prof.Flush()
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"device":    dev.Label(),
		"meshes":    sum.Meshes,
		"buffers":   sum.Buffers,
		"gpu_bytes": sum.Bytes,
	}).Info("[Meshbuf] upload complete")
	fmt.Fprintln(cmd.OutOrStdout(), sum)

	if win != nil {
		win.ProcessMessages()
	}
	return nil
}

// summary totals what one upload pass sent to the device.
type summary struct {
	Meshes    int
	Vertices  int
	Triangles int
	Buffers   int
	Bytes     int
}

func (s summary) String() string {
	return fmt.Sprintf("%d mesh(es), %d vertices, %d triangles, %d buffers, %d bytes",
		s.Meshes, s.Vertices, s.Triangles, s.Buffers, s.Bytes)
}

// buildMeshes creates count meshes of the named shape, labelled shape-0, shape-1, ...
func buildMeshes(shape string, count, cells int, options ...geometry.StaticGeometryBuilderOption) ([]geometry.StaticGeometry, error) {
	if count < 1 {
		return nil, fmt.Errorf("count must be at least 1, got %d", count)
	}

	geoms := make([]geometry.StaticGeometry, 0, count)
	for i := 0; i < count; i++ {
		opts := append([]geometry.StaticGeometryBuilderOption{geometry.WithLabel(fmt.Sprintf("%s-%d", shape, i))}, options...)

		var (
			g   geometry.StaticGeometry
			err error
		)
		switch shape {
		case "quad":
			g = shapes.Quad(1, 1, opts...)
		case "cube":
			g = shapes.Cube(1, opts...)
		case "sphere":
			g, err = shapes.Sphere(0.5, 16, 32, opts...)
		case "box":
			g, err = shapes.Box(1, 0.5, 0.25, 0.05, cells, opts...)
		case "cylinder":
			g, err = shapes.Cylinder(1, 0.25, 0.02, cells, opts...)
		default:
			return nil, fmt.Errorf("unknown shape %q", shape)
		}
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", shape, err)
		}
		geoms = append(geoms, g)
	}
	return geoms, nil
}

// loadModel imports every triangle primitive of a glTF or GLB file.
func loadModel(path string, options ...geometry.StaticGeometryBuilderOption) ([]geometry.StaticGeometry, error) {
	l := loader.NewLoader(loader.BackendTypeGLTF, loader.WithGeometryOptions(options...))
	geoms, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	if len(geoms) == 0 {
		return nil, fmt.Errorf("%s contains no meshes", path)
	}
	return geoms, nil
}

// transformFlags holds the raw --translate, --rotate and --scale values.
type transformFlags struct {
	translate string
	rotate    string
	scale     string
}

// matrix builds the model matrix for the flags, or nil when none is set.
func (f transformFlags) matrix() ([]float32, error) {
	if f.translate == "" && f.rotate == "" && f.scale == "" {
		return nil, nil
	}
	pos, rot, scale := [3]float32{}, [3]float32{}, [3]float32{1, 1, 1}
	for _, v := range []struct {
		flag string
		raw  string
		dst  *[3]float32
	}{
		{"--translate", f.translate, &pos},
		{"--rotate", f.rotate, &rot},
		{"--scale", f.scale, &scale},
	} {
		if v.raw == "" {
			continue
		}
		x, y, z, err := parseVec3(v.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.flag, err)
		}
		*v.dst = [3]float32{x, y, z}
	}
	for i := range rot {
		rot[i] *= math.Pi / 180
	}

	m := make([]float32, 16)
	common.BuildModelMatrix(m, pos, rot, scale)
	return m, nil
}

// buildSteps maps the processing flags to batch steps. The bounding box is always refreshed last.
func buildSteps(tangents, wireframe bool, xf transformFlags) ([]batch.Step, error) {
	var steps []batch.Step
	if tangents {
		steps = append(steps, batch.GenerateTangents())
	}
	if wireframe {
		steps = append(steps, batch.GenerateBarycentric())
	}
	m, err := xf.matrix()
	if err != nil {
		return nil, err
	}
	if m != nil {
		steps = append(steps, batch.ApplyTransform(m))
	}
	return append(steps, batch.UpdateBoundingBox()), nil
}

func parseVec3(s string) (float32, float32, float32, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v [3]float32
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = float32(f)
	}
	return v[0], v[1], v[2], nil
}

// upload requests a buffer chunk for every mesh on dev, ticking prof once per mesh.
func upload(dev device.Device, geoms []geometry.StaticGeometry, prof *profiler.Profiler) (summary, error) {
	sum := summary{Meshes: len(geoms)}
	for _, g := range geoms {
		before := sum.Bytes
		chunk, err := g.BufferChunk(dev)
		if err != nil {
			return sum, fmt.Errorf("uploading %s: %w", g.Label(), err)
		}

		enabled, err := g.EnabledAttributes()
		if err != nil {
			return sum, err
		}
		for _, attr := range enabled {
			sum.Bytes += len(attr.Value) * 4
		}
		if chunk.IndexBuffer != nil {
			sum.Bytes += chunk.IndexBuffer.Count * 4
			sum.Triangles += chunk.IndexBuffer.Count / 3
		} else {
			sum.Triangles += g.VertexCount() / 3
		}
		sum.Vertices += g.VertexCount()
		sum.Buffers += len(chunk.Handles())
		prof.Tick(sum.Bytes - before)
	}
	return sum, nil
}

func dispose(dev device.Device, geoms []geometry.StaticGeometry) {
	for _, g := range geoms {
		g.Dispose(dev)
	}
}
