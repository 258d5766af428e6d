package serializer

import "encoding/hex"

type hexSerializer struct{}

func (hexSerializer) Serialize(data []byte) ([]byte, error) {
	return hex.AppendEncode(nil, data), nil
}

func (hexSerializer) Deserialize(data []byte) ([]byte, error) {
	return hex.AppendDecode(nil, data)
}
