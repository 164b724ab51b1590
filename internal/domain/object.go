package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Object identifier spaces. Protocol objects are referenced by user
// transactions; implementation objects exist only as ledger bookkeeping.
const (
	SpaceProtocol       uint8 = 1
	SpaceImplementation uint8 = 2
)

// Object type codes within each space. The set is closed: every entity this
// module stores is one of these kinds.
const (
	TypeAccount uint8 = 2 // protocol space, owned by the account subsystem
	TypeAsset   uint8 = 3 // protocol space

	TypeAssetDynamicData  uint8 = 3 // implementation space
	TypeAssetBitassetData uint8 = 4
	TypeAssetDividendData uint8 = 5
	TypeDividendBalance   uint8 = 6
)

// ObjectID is a fully qualified ledger object identifier. Its text form is
// "space.type.instance", e.g. "1.3.12".
type ObjectID struct {
	Space    uint8
	Type     uint8
	Instance uint64
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Space, id.Type, id.Instance)
}

// ParseObjectID parses the dotted text form of an object identifier.
func ParseObjectID(s string) (ObjectID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return ObjectID{}, fmt.Errorf("object id %q: expected space.type.instance", s)
	}
	space, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return ObjectID{}, fmt.Errorf("object id %q: bad space: %w", s, err)
	}
	typ, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return ObjectID{}, fmt.Errorf("object id %q: bad type: %w", s, err)
	}
	instance, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return ObjectID{}, fmt.Errorf("object id %q: bad instance: %w", s, err)
	}
	return ObjectID{Space: uint8(space), Type: uint8(typ), Instance: instance}, nil
}

// Typed instance numbers. The host ledger allocates instances; this module
// never invents them.
type (
	AssetID           uint64
	AccountID         uint64
	DynamicDataID     uint64
	BitassetDataID    uint64
	DividendDataID    uint64
	DividendBalanceID uint64
)

func (id AssetID) Object() ObjectID {
	return ObjectID{Space: SpaceProtocol, Type: TypeAsset, Instance: uint64(id)}
}

func (id AccountID) Object() ObjectID {
	return ObjectID{Space: SpaceProtocol, Type: TypeAccount, Instance: uint64(id)}
}

func (id DynamicDataID) Object() ObjectID {
	return ObjectID{Space: SpaceImplementation, Type: TypeAssetDynamicData, Instance: uint64(id)}
}

func (id BitassetDataID) Object() ObjectID {
	return ObjectID{Space: SpaceImplementation, Type: TypeAssetBitassetData, Instance: uint64(id)}
}

func (id DividendDataID) Object() ObjectID {
	return ObjectID{Space: SpaceImplementation, Type: TypeAssetDividendData, Instance: uint64(id)}
}

func (id DividendBalanceID) Object() ObjectID {
	return ObjectID{Space: SpaceImplementation, Type: TypeDividendBalance, Instance: uint64(id)}
}
