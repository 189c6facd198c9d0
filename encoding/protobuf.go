package encoding

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/arkwright/stl/model"
)

// DescriptorRegistry resolves the dotted `external "pkg.Type"` names used by
// `message ... { external "..." }` declarations to compiled protobuf message
// descriptors, built from a FileDescriptorSet supplied by the manifest.
type DescriptorRegistry struct {
	files *protoregistry.Files
}

// NewDescriptorRegistry builds a registry from a serialized
// descriptorpb.FileDescriptorSet, the same artifact `protoc
// --descriptor_set_out` produces.
func NewDescriptorRegistry(fdset *descriptorpb.FileDescriptorSet) (*DescriptorRegistry, error) {
	files, err := protodesc.NewFiles(fdset)
	if err != nil {
		return nil, fmt.Errorf("building descriptor registry: %w", err)
	}
	return &DescriptorRegistry{files: files}, nil
}

// Find resolves a fully-qualified protobuf message type name.
func (r *DescriptorRegistry) Find(fullName string) (protoreflect.MessageDescriptor, error) {
	if r == nil || r.files == nil {
		return nil, fmt.Errorf("no protobuf descriptors loaded; cannot resolve %s", fullName)
	}
	d, err := r.files.FindDescriptorByName(protoreflect.FullName(fullName))
	if err != nil {
		return nil, fmt.Errorf("cannot find protobuf message %s: %w", fullName, err)
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%s is not a message type", fullName)
	}
	return md, nil
}

// Protobuf serializes message field maps as binary protobuf wire data using
// dynamicpb, so no generated Go structs are required for the protocols under
// test. Ported from original_source/stl/lib.py's ProtobufEncoding.
type Protobuf struct {
	descriptors *DescriptorRegistry
}

func (p *Protobuf) SerializeToString(value any, msg *model.Message) (string, error) {
	md, err := p.descriptors.Find(msg.ExternalName)
	if err != nil {
		return "", err
	}
	dmsg := dynamicpb.NewMessage(md)
	dict, ok := value.(map[string]any)
	if !ok {
		return "", fmt.Errorf("protobuf encoding expects a field map for message %s", msg.Name)
	}
	if err := fillProtobufMessage(dict, dmsg); err != nil {
		return "", err
	}
	b, err := proto.Marshal(dmsg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *Protobuf) ParseFromString(data string, msg *model.Message) (any, error) {
	md, err := p.descriptors.Find(msg.ExternalName)
	if err != nil {
		return nil, err
	}
	dmsg := dynamicpb.NewMessage(md)
	if err := proto.Unmarshal([]byte(data), dmsg); err != nil {
		return nil, fmt.Errorf("could not decode protobuf: %w", err)
	}
	out := map[string]any{}
	fillValueDict(dmsg, out)
	return out, nil
}

func fillProtobufMessage(values map[string]any, pmsg protoreflect.Message) error {
	fields := pmsg.Descriptor().Fields()
	for key, v := range values {
		fd := fields.ByName(protoreflect.Name(key))
		if fd == nil {
			return fmt.Errorf("no protobuf field named %s in %s", key, pmsg.Descriptor().FullName())
		}
		if fd.IsList() {
			list, ok := v.([]any)
			if !ok {
				return fmt.Errorf("field %s expects a list value", key)
			}
			lv := pmsg.NewField(fd).List()
			for _, elem := range list {
				if sub, ok := elem.(map[string]any); ok {
					ev := lv.NewElement()
					if err := fillProtobufMessage(sub, ev.Message()); err != nil {
						return err
					}
					lv.Append(ev)
				} else {
					lv.Append(protoreflect.ValueOf(toProtoScalar(fd, elem)))
				}
			}
			pmsg.Set(fd, protoreflect.ValueOfList(lv))
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			subMsg := pmsg.NewField(fd).Message()
			if err := fillProtobufMessage(sub, subMsg); err != nil {
				return err
			}
			pmsg.Set(fd, protoreflect.ValueOfMessage(subMsg))
			continue
		}
		pmsg.Set(fd, protoreflect.ValueOf(toProtoScalar(fd, v)))
	}
	return nil
}

func toProtoScalar(fd protoreflect.FieldDescriptor, v any) any {
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return int32(toInt64(v))
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return toInt64(v)
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return uint32(toInt64(v))
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return uint64(toInt64(v))
	default:
		return v
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func fillValueDict(pmsg protoreflect.Message, out map[string]any) {
	pmsg.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		if fd.IsList() {
			list := v.List()
			elems := make([]any, 0, list.Len())
			for i := 0; i < list.Len(); i++ {
				elems = append(elems, valueFromProtobuf(fd, list.Get(i)))
			}
			out[string(fd.Name())] = elems
			return true
		}
		out[string(fd.Name())] = valueFromProtobuf(fd, v)
		return true
	})
}

func valueFromProtobuf(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	if fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind {
		sub := map[string]any{}
		fillValueDict(v.Message(), sub)
		return sub
	}
	switch x := v.Interface().(type) {
	case int32:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	default:
		return x
	}
}
