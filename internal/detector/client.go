package detector

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/landmark"
)

// DetectMethod is the full RPC name served by the landmark detector. Both
// request and response are google.protobuf.Struct messages.
const DetectMethod = "/interview.FaceDetector/Detect"

// ErrMalformedResponse marks a detector reply that cannot be read as a
// frame sample.
var ErrMalformedResponse = errors.New("malformed detector response")

// #region client-struct
// Client wraps the gRPC connection to the external face and landmark
// detector.
type Client struct {
	conn    *grpc.ClientConn
	cc      grpc.ClientConnInterface
	timeout time.Duration
}

// #endregion client-struct

// #region constructor
// NewClient connects to the detector at addr. A zero timeout leaves the
// caller's context deadline in charge.
func NewClient(addr string, timeout time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn, timeout: timeout}, nil
}

// NewClientWithConn creates a Client over an existing connection.
// Used for testing against an in-process server.
func NewClientWithConn(cc grpc.ClientConnInterface, timeout time.Duration) *Client {
	return &Client{cc: cc, timeout: timeout}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection if the client owns one.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region detect
// Detect sends one encoded image to the detector and returns the sample
// stamped with video time t.
func (c *Client) Detect(ctx context.Context, frame []byte, t float64) (landmark.FrameSample, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := structpb.NewStruct(map[string]interface{}{
		"image":     base64.StdEncoding.EncodeToString(frame),
		"timestamp": t,
	})
	if err != nil {
		return landmark.FrameSample{}, fmt.Errorf("build detect request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, DetectMethod, req, resp); err != nil {
		return landmark.FrameSample{}, fmt.Errorf("detect rpc: %w", err)
	}
	return decodeResponse(resp, t)
}

// decodeResponse reads {face_count, landmarks: [[x, y, z?], ...]}. An absent
// or empty landmark list yields a sample without a mesh.
func decodeResponse(resp *structpb.Struct, t float64) (landmark.FrameSample, error) {
	s := landmark.FrameSample{Timestamp: t}

	count, ok := resp.GetFields()["face_count"]
	if !ok {
		return s, fmt.Errorf("%w: face_count missing", ErrMalformedResponse)
	}
	n := count.GetNumberValue()
	if n < 0 {
		return s, fmt.Errorf("%w: face_count %v", ErrMalformedResponse, n)
	}
	s.FaceCount = int(n)

	points := resp.GetFields()["landmarks"].GetListValue().GetValues()
	if len(points) == 0 {
		return s, nil
	}
	s.Landmarks = make([]landmark.Point, len(points))
	for i, v := range points {
		xyz := v.GetListValue().GetValues()
		if len(xyz) < 2 {
			return landmark.FrameSample{Timestamp: t, FaceCount: s.FaceCount},
				fmt.Errorf("%w: landmark %d has %d coordinates", ErrMalformedResponse, i, len(xyz))
		}
		p := landmark.Point{X: xyz[0].GetNumberValue(), Y: xyz[1].GetNumberValue()}
		if len(xyz) > 2 {
			p.Z = xyz[2].GetNumberValue()
		}
		s.Landmarks[i] = p
	}
	return s, nil
}

// #endregion detect
