package bridge

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes a native. args take any value structpb accepts; vectors are
// passed as []any{x, y, z} or Vec.
func (c *Client) Call(ctx context.Context, native string, args ...any) (*structpb.Value, error) {
	list, err := structpb.NewList(args)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode args: %w", err)
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"native": structpb.NewStringValue(native),
		"args":   structpb.NewListValue(list),
	}}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CallMethod, req, out); err != nil {
		return nil, err
	}
	return out.GetFields()["result"], nil
}

func (c *Client) List(ctx context.Context) ([]string, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListMethod, &structpb.Struct{}, out); err != nil {
		return nil, err
	}
	var names []string
	for _, v := range out.GetFields()["natives"].GetListValue().GetValues() {
		names = append(names, v.GetStringValue())
	}
	return names, nil
}

func Vec(x, y, z float32) map[string]any {
	return map[string]any{"x": x, "y": y, "z": z}
}
