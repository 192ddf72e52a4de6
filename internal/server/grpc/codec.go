package grpc

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// wireMessage is implemented by every request and response of the service.
// The field numbers follow internal/proto/authorization.proto.
type wireMessage interface {
	marshalProto() ([]byte, error)
	unmarshalProto(b []byte) error
}

// protoCodec encodes the service messages in the protobuf wire format, so
// clients generated from authorization.proto interoperate with this server.
type protoCodec struct{}

func (protoCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("proto codec: cannot marshal %T", v)
	}
	return m.marshalProto()
}

func (protoCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("proto codec: cannot unmarshal into %T", v)
	}
	return m.unmarshalProto(data)
}

func (protoCodec) Name() string {
	return "proto"
}

// field is one decoded key/value pair. Only varint and length-delimited
// values are kept; other wire types are skipped.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func walkFields(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func (f field) asInt64() (int64, bool) {
	return int64(f.varint), f.typ == protowire.VarintType
}

func (f field) asBool() (bool, bool) {
	return protowire.DecodeBool(f.varint), f.typ == protowire.VarintType
}

func (f field) asString() (string, bool) {
	return string(f.bytes), f.typ == protowire.BytesType
}

func (f field) asTime() (time.Time, error) {
	if f.typ != protowire.BytesType {
		return time.Time{}, nil
	}
	ts := &timestamppb.Timestamp{}
	if err := proto.Unmarshal(f.bytes, ts); err != nil {
		return time.Time{}, err
	}
	if err := ts.CheckValid(); err != nil {
		return time.Time{}, err
	}
	return ts.AsTime(), nil
}

// append helpers omit zero values, as proto3 does for scalar fields.

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendTime(b []byte, num protowire.Number, t time.Time) ([]byte, error) {
	if t.IsZero() {
		return b, nil
	}
	raw, err := proto.Marshal(timestamppb.New(t))
	if err != nil {
		return nil, err
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, raw), nil
}

func (m *AuthorizeRequest) marshalProto() ([]byte, error) {
	var b []byte
	b = appendInt64(b, 1, m.AccountID)
	b = appendBool(b, 2, m.TwoFAStatus)
	b = appendString(b, 3, m.Role)
	return b, nil
}

func (m *AuthorizeRequest) unmarshalProto(b []byte) error {
	*m = AuthorizeRequest{}
	return walkFields(b, func(f field) error {
		switch f.num {
		case 1:
			if v, ok := f.asInt64(); ok {
				m.AccountID = v
			}
		case 2:
			if v, ok := f.asBool(); ok {
				m.TwoFAStatus = v
			}
		case 3:
			if v, ok := f.asString(); ok {
				m.Role = v
			}
		}
		return nil
	})
}

func (m *TokenPairResponse) marshalProto() ([]byte, error) {
	var (
		b   []byte
		err error
	)
	b = appendString(b, 1, m.AccessToken)
	b = appendString(b, 2, m.RefreshToken)
	if b, err = appendTime(b, 3, m.AccessExpiresAt); err != nil {
		return nil, err
	}
	if b, err = appendTime(b, 4, m.RefreshExpiresAt); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *TokenPairResponse) unmarshalProto(b []byte) error {
	*m = TokenPairResponse{}
	return walkFields(b, func(f field) (err error) {
		switch f.num {
		case 1:
			if v, ok := f.asString(); ok {
				m.AccessToken = v
			}
		case 2:
			if v, ok := f.asString(); ok {
				m.RefreshToken = v
			}
		case 3:
			m.AccessExpiresAt, err = f.asTime()
		case 4:
			m.RefreshExpiresAt, err = f.asTime()
		}
		return err
	})
}

func (m *CheckAuthorizationRequest) marshalProto() ([]byte, error) {
	return appendString(nil, 1, m.AccessToken), nil
}

func (m *CheckAuthorizationRequest) unmarshalProto(b []byte) error {
	*m = CheckAuthorizationRequest{}
	return walkFields(b, func(f field) error {
		if v, ok := f.asString(); ok && f.num == 1 {
			m.AccessToken = v
		}
		return nil
	})
}

func (m *CheckAuthorizationResponse) marshalProto() ([]byte, error) {
	var b []byte
	b = appendInt64(b, 1, m.AccountID)
	b = appendBool(b, 2, m.TwoFAStatus)
	b = appendString(b, 3, m.Role)
	return b, nil
}

func (m *CheckAuthorizationResponse) unmarshalProto(b []byte) error {
	*m = CheckAuthorizationResponse{}
	return walkFields(b, func(f field) error {
		switch f.num {
		case 1:
			if v, ok := f.asInt64(); ok {
				m.AccountID = v
			}
		case 2:
			if v, ok := f.asBool(); ok {
				m.TwoFAStatus = v
			}
		case 3:
			if v, ok := f.asString(); ok {
				m.Role = v
			}
		}
		return nil
	})
}

func (m *RefreshRequest) marshalProto() ([]byte, error) {
	return appendString(nil, 1, m.RefreshToken), nil
}

func (m *RefreshRequest) unmarshalProto(b []byte) error {
	*m = RefreshRequest{}
	return walkFields(b, func(f field) error {
		if v, ok := f.asString(); ok && f.num == 1 {
			m.RefreshToken = v
		}
		return nil
	})
}
