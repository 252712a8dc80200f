package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"viper/internal/source"
)

// Field describes a single annotated field of a class.
type Field struct {
	Name string
	Type TypeID
}

// ClassInfo stores metadata for a class type.
type ClassInfo struct {
	Name   string
	Decl   source.Span
	Fields []Field
}

// RegisterClass allocates a nominal class type slot and returns its TypeID.
func (in *Interner) RegisterClass(name string, decl source.Span) TypeID {
	in.classes = append(in.classes, ClassInfo{Name: name, Decl: decl})
	slot, err := safecast.Conv[uint32](len(in.classes) - 1)
	if err != nil {
		panic(fmt.Errorf("class info overflow: %w", err))
	}
	return in.internRaw(Type{Kind: KindClass, Payload: slot})
}

// SetClassFields stores the resolved fields of a class type.
func (in *Interner) SetClassFields(id TypeID, fields []Field) {
	if info, ok := in.ClassInfo(id); ok {
		info.Fields = slices.Clone(fields)
	}
}

// ClassInfo returns metadata for the provided class TypeID.
func (in *Interner) ClassInfo(id TypeID) (*ClassInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindClass || int(tt.Payload) >= len(in.classes) {
		return nil, false
	}
	return &in.classes[tt.Payload], true
}

// FieldIndex returns the position and type of a named field.
func (in *Interner) FieldIndex(id TypeID, name string) (int, TypeID, bool) {
	info, ok := in.ClassInfo(id)
	if !ok {
		return -1, NoTypeID, false
	}
	for i, f := range info.Fields {
		if f.Name == name {
			return i, f.Type, true
		}
	}
	return -1, NoTypeID, false
}
