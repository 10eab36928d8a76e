package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the storage layer. Hand-composed from the mus-go
// primitive serializers; field order is the wire format and must not change
// without bumping the stored format version.

var stringsMUS = ord.NewSliceSer[string](ord.String)

// timeMUS encodes a time.Time as UTC Unix microseconds.
type timeSer struct{}

var timeMUS = timeSer{}

func (timeSer) Size(t time.Time) int {
	return raw.Int64.Size(t.UnixMicro())
}

func (timeSer) Marshal(t time.Time, bs []byte) int {
	return raw.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	micros, n, err := raw.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

// HashKeyMUS implements MUS encoding for HashKey.
type hashKeySer struct{}

var HashKeyMUS = hashKeySer{}

func (hashKeySer) Size(k HashKey) int {
	return varint.Uint64.Size(uint64(k))
}

func (hashKeySer) Marshal(k HashKey, bs []byte) int {
	return varint.Uint64.Marshal(uint64(k), bs)
}

func (hashKeySer) Unmarshal(bs []byte) (HashKey, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return HashKey(v), n, err
}

// ProfileMUS implements MUS encoding for CandidateProfile.
type profileSer struct{}

var ProfileMUS = profileSer{}

func (profileSer) Size(p CandidateProfile) int {
	return ord.String.Size(p.ID) +
		ord.String.Size(p.Name) +
		ord.String.Size(p.Email) +
		stringsMUS.Size(p.Skills) +
		stringsMUS.Size(p.SkillDomains) +
		raw.Float64.Size(p.ExperienceYears) +
		ord.String.Size(p.CurrentCompany) +
		stringsMUS.Size(p.Companies) +
		stringsMUS.Size(p.Clients) +
		stringsMUS.Size(p.Certifications) +
		stringsMUS.Size(p.Education) +
		ord.String.Size(p.Location) +
		ord.String.Size(p.RawText) +
		timeMUS.Size(p.InsertedAt) +
		timeMUS.Size(p.UpdatedAt)
}

func (profileSer) Marshal(p CandidateProfile, bs []byte) (n int) {
	n += ord.String.Marshal(p.ID, bs[n:])
	n += ord.String.Marshal(p.Name, bs[n:])
	n += ord.String.Marshal(p.Email, bs[n:])
	n += stringsMUS.Marshal(p.Skills, bs[n:])
	n += stringsMUS.Marshal(p.SkillDomains, bs[n:])
	n += raw.Float64.Marshal(p.ExperienceYears, bs[n:])
	n += ord.String.Marshal(p.CurrentCompany, bs[n:])
	n += stringsMUS.Marshal(p.Companies, bs[n:])
	n += stringsMUS.Marshal(p.Clients, bs[n:])
	n += stringsMUS.Marshal(p.Certifications, bs[n:])
	n += stringsMUS.Marshal(p.Education, bs[n:])
	n += ord.String.Marshal(p.Location, bs[n:])
	n += ord.String.Marshal(p.RawText, bs[n:])
	n += timeMUS.Marshal(p.InsertedAt, bs[n:])
	n += timeMUS.Marshal(p.UpdatedAt, bs[n:])
	return n
}

func (profileSer) Unmarshal(bs []byte) (p CandidateProfile, n int, err error) {
	var c int
	if p.ID, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.Name, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.Email, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.Skills, c, err = stringsMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.SkillDomains, c, err = stringsMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.ExperienceYears, c, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.CurrentCompany, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.Companies, c, err = stringsMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.Clients, c, err = stringsMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.Certifications, c, err = stringsMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.Education, c, err = stringsMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.Location, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.RawText, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.InsertedAt, c, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.UpdatedAt, c, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	return p, n, nil
}

// IndexVersionMUS implements MUS encoding for IndexVersion.
type indexVersionSer struct{}

var IndexVersionMUS = indexVersionSer{}

func (indexVersionSer) Size(v IndexVersion) int {
	return ord.String.Size(v.EmbeddingModel) +
		varint.Int.Size(v.Dimensions) +
		timeMUS.Size(v.UpdatedAt)
}

func (indexVersionSer) Marshal(v IndexVersion, bs []byte) (n int) {
	n += ord.String.Marshal(v.EmbeddingModel, bs[n:])
	n += varint.Int.Marshal(v.Dimensions, bs[n:])
	n += timeMUS.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (indexVersionSer) Unmarshal(bs []byte) (v IndexVersion, n int, err error) {
	var c int
	if v.EmbeddingModel, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + c, err
	}
	n += c
	if v.Dimensions, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + c, err
	}
	n += c
	if v.UpdatedAt, c, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + c, err
	}
	n += c
	return v, n, nil
}
