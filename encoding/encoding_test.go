package encoding

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/arkwright/stl/model"
)

func TestByNameJson(t *testing.T) {
	enc, err := ByName("json", nil)
	require.NoError(t, err)
	require.IsType(t, Json{}, enc)
}

func TestByNameProtobuf(t *testing.T) {
	registry, err := NewDescriptorRegistry(&descriptorpb.FileDescriptorSet{})
	require.NoError(t, err)
	enc, err := ByName("protobuf", registry)
	require.NoError(t, err)
	require.IsType(t, &Protobuf{}, enc)
}

func TestByNameProtobufBase64(t *testing.T) {
	registry, err := NewDescriptorRegistry(&descriptorpb.FileDescriptorSet{})
	require.NoError(t, err)
	enc, err := ByName("protobuf+base64", registry)
	require.NoError(t, err)
	require.IsType(t, &ProtobufBase64{}, enc)
}

func TestByNameUnknown(t *testing.T) {
	_, err := ByName("xml", nil)
	require.Error(t, err)
}

func TestJsonRoundTrip(t *testing.T) {
	msg := model.NewMessage("Greeting", "Greeting", false)
	msg.Encoding = Json{}
	msg.Fields = []*model.Field{
		{Name: "text", Type: "string"},
		{Name: "count", Type: "int"},
	}

	mv, err := msg.Resolve(map[string]any{"text": "hi", "count": int64(3)})
	require.NoError(t, err)

	encoded, err := mv.Encode()
	require.NoError(t, err)

	ok, err := mv.Match(encoded)
	require.NoError(t, err)
	require.True(t, ok, "a message's own encoded wire form must satisfy its own Match")
}

func TestJsonRoundTripArrayMessage(t *testing.T) {
	msg := model.NewMessage("Greetings", "Greetings", true)
	msg.Encoding = Json{}
	msg.Fields = []*model.Field{{Name: "text", Type: "string"}}

	mv, err := msg.Resolve([]any{
		map[string]any{"text": "hi"},
		map[string]any{"text": "bye"},
	})
	require.NoError(t, err)

	encoded, err := mv.Encode()
	require.NoError(t, err)

	ok, err := mv.Match(encoded)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestJsonMatchRejectsMismatchedField(t *testing.T) {
	msg := model.NewMessage("Greeting", "Greeting", false)
	msg.Encoding = Json{}
	msg.Fields = []*model.Field{{Name: "text", Type: "string"}}

	mv, err := msg.Resolve(map[string]any{"text": "hi"})
	require.NoError(t, err)

	ok, err := mv.Match(`{"text":"bye"}`)
	require.NoError(t, err)
	require.False(t, ok)
}
