package detector

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
)

// #region fake-server
// fakeDetector answers DetectMethod with a fixed reply and records the last
// request it saw.
type fakeDetector struct {
	reply   map[string]interface{}
	err     error
	lastReq *structpb.Struct
}

func (f *fakeDetector) handle(_ any, stream grpc.ServerStream) error {
	method, _ := grpc.MethodFromServerStream(stream)
	if method != DetectMethod {
		return status.Errorf(codes.Unimplemented, "unknown method %s", method)
	}
	req := &structpb.Struct{}
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	f.lastReq = req
	if f.err != nil {
		return f.err
	}
	resp, err := structpb.NewStruct(f.reply)
	if err != nil {
		return err
	}
	return stream.SendMsg(resp)
}

func startFake(t *testing.T, f *fakeDetector) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnknownServiceHandler(f.handle))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewClientWithConn(conn, 2*time.Second)
}

func meshReply(faces int, points int) map[string]interface{} {
	lm := make([]interface{}, points)
	for i := range lm {
		lm[i] = []interface{}{0.5, 0.25, 0.01}
	}
	return map[string]interface{}{"face_count": float64(faces), "landmarks": lm}
}

// #endregion fake-server

// #region constructor-tests
func TestNewClient_LazyConnect(t *testing.T) {
	c, err := NewClient("localhost:0", time.Second)
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestClose_WithoutOwnedConn(t *testing.T) {
	c := NewClientWithConn(nil, 0)
	if err := c.Close(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

// #endregion constructor-tests

// #region detect-tests
func TestDetect_FullMesh(t *testing.T) {
	f := &fakeDetector{reply: meshReply(1, landmark.MeshSize)}
	c := startFake(t, f)

	s, err := c.Detect(context.Background(), []byte{0xff, 0xd8}, 1.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Timestamp != 1.5 || s.FaceCount != 1 {
		t.Errorf("unexpected sample header: t=%v faces=%d", s.Timestamp, s.FaceCount)
	}
	if !s.HasMesh() {
		t.Fatalf("expected full mesh, got %d points", len(s.Landmarks))
	}
	if s.Landmarks[0] != (landmark.Point{X: 0.5, Y: 0.25, Z: 0.01}) {
		t.Errorf("unexpected point: %+v", s.Landmarks[0])
	}
	if got := f.lastReq.GetFields()["image"].GetStringValue(); got != "/9g=" {
		t.Errorf("expected base64 image in request, got %q", got)
	}
	if got := f.lastReq.GetFields()["timestamp"].GetNumberValue(); got != 1.5 {
		t.Errorf("expected timestamp 1.5 in request, got %v", got)
	}
}

func TestDetect_NoFace(t *testing.T) {
	c := startFake(t, &fakeDetector{reply: map[string]interface{}{"face_count": 0.0}})

	s, err := c.Detect(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.FaceCount != 0 || s.Landmarks != nil {
		t.Errorf("expected empty sample, got %+v", s)
	}
}

func TestDetect_RPCError(t *testing.T) {
	c := startFake(t, &fakeDetector{err: status.Error(codes.Unavailable, "model loading")})

	_, err := c.Detect(context.Background(), nil, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if status.Code(errors.Unwrap(err)) != codes.Unavailable {
		t.Errorf("expected wrapped Unavailable status, got %v", err)
	}
}

func TestDecodeResponse_Malformed(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"missing count":  {"landmarks": []interface{}{}},
		"negative count": {"face_count": -1.0},
		"short point":    {"face_count": 1.0, "landmarks": []interface{}{[]interface{}{0.1}}},
	}
	for name, raw := range cases {
		resp, err := structpb.NewStruct(raw)
		if err != nil {
			t.Fatalf("%s: build: %v", name, err)
		}
		if _, err := decodeResponse(resp, 0); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("%s: expected ErrMalformedResponse, got %v", name, err)
		}
	}
}

// #endregion detect-tests

// #region source-tests
func TestFileSource_ReadsAndSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.jsonl")
	data := `{"t":0,"face_count":1}` + "\n\n" + `{"t":0.1,"face_count":2}` + "\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	ctx := context.Background()
	first, err := src.Next(ctx)
	if err != nil || first.FaceCount != 1 {
		t.Fatalf("first: %+v %v", first, err)
	}
	second, err := src.Next(ctx)
	if err != nil || second.Timestamp != 0.1 || second.FaceCount != 2 {
		t.Fatalf("second: %+v %v", second, err)
	}
	if _, err := src.Next(ctx); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestFileSource_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.jsonl")
	os.WriteFile(path, []byte("{nope\n"), 0644)
	src, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()
	if _, err := src.Next(context.Background()); err == nil || err == io.EOF {
		t.Errorf("expected decode error, got %v", err)
	}
}

type stampDetector struct{ calls []float64 }

func (d *stampDetector) Detect(_ context.Context, _ []byte, t float64) (landmark.FrameSample, error) {
	d.calls = append(d.calls, t)
	return landmark.FrameSample{Timestamp: t, FaceCount: 1}, nil
}

func TestDirSource_IntervalTiming(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"f003.jpg", "f001.jpg", "f002.jpg", "f004.png", "f005.jpg", "notes.txt"} {
		os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644)
	}
	d := &stampDetector{}
	src, err := NewDirSource(dir, 10, 2, d)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if src.Frames() != 3 {
		t.Errorf("expected 3 analyzed frames, got %d", src.Frames())
	}

	for {
		if _, err := src.Next(context.Background()); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	want := []float64{0, 0.2, 0.4}
	if len(d.calls) != len(want) {
		t.Fatalf("expected %d detections, got %v", len(want), d.calls)
	}
	for i := range want {
		if diff := d.calls[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("frame %d: expected t=%v, got %v", i, want[i], d.calls[i])
		}
	}
}

func TestDirSource_Cancelled(t *testing.T) {
	src, err := NewDirSource(t.TempDir(), 0, 0, &stampDetector{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// #endregion source-tests
