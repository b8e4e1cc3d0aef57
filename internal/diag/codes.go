package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// IR input problems found while decoding or validating
	IRInfo             Code = 3000
	IRUnsupportedFmt   Code = 3001
	IRInvalidFunc      Code = 3002
	IRUnreachableBlock Code = 3003

	// Lowering
	LowInfo            Code = 4000
	LowUnnamedBinding  Code = 4001
	LowUnknownPattern  Code = 4002
	LowForeignPlatform Code = 4003
	LowErasedNoName    Code = 4004
	LowSelfReference   Code = 4005
	LowUnresolvedCall  Code = 4006
	LowFallbackIf      Code = 4007

	// Configuration
	CfgInfo        Code = 5000
	CfgUnknownKey  Code = 5001
	CfgBadExtern   Code = 5002
	CfgBadTypeName Code = 5003

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:        "Unknown error",
		IRInfo:             "IR information",
		IRUnsupportedFmt:   "Unsupported IR document format",
		IRInvalidFunc:      "Malformed function",
		IRUnreachableBlock: "Block is unreachable from entry",
		LowInfo:            "Lowering information",
		LowUnnamedBinding:  "Bind pattern without a binding name",
		LowUnknownPattern:  "Unknown case pattern kind",
		LowForeignPlatform: "Foreign code for another platform",
		LowErasedNoName:    "Erased value has no name to reference",
		LowSelfReference:   "Value depends on itself",
		LowUnresolvedCall:  "Call target is neither local nor resolvable",
		LowFallbackIf:      "Conditional branch lowered without a recognized construct",
		CfgInfo:            "Configuration information",
		CfgUnknownKey:      "Unknown configuration key",
		CfgBadExtern:       "Invalid extern mapping",
		CfgBadTypeName:     "Invalid type mapping",
		ObsInfo:            "Observability information",
		ObsTimings:         "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("IR%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
