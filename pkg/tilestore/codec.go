package tilestore

import (
	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

func encodeTile(td *tileData) ([]byte, error) {
	encoded, err := binary.Marshal(td)
	if err != nil {
		return nil, err
	}
	return Compress(encoded)
}

func decodeTile(bb []byte) (*tileData, error) {
	raw, err := Decompress(bb)
	if err != nil {
		return nil, err
	}
	var td tileData
	if err := binary.Unmarshal(raw, &td); err != nil {
		return nil, err
	}
	return &td, nil
}

func Compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func Decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}

	return bb, nil
}
