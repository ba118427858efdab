package dispatch

import "github.com/ashstone-io/testpool/types"

// On the wire, Status is 0=Success, 1=Fail (see spec §6). In the
// store's Status enum the zero value is Fail so that a freshly
// registered test defaults to failing; the two encodings are
// deliberately inverted and must be translated explicitly rather than
// cast.
func translateStatus(wireStatus uint32) types.Status {
	if wireStatus == 0 {
		return types.StatusSuccess
	}
	return types.StatusFail
}

// LogKind shares the same ordinal order on the wire and in the store
// (0 Debug, 1 Info, 2 Warning), so this is a direct mapping; kept as
// its own function so a future divergence doesn't require touching
// call sites.
func translateLogKind(wireKind uint32) types.LogKind {
	switch wireKind {
	case 0:
		return types.LogDebug
	case 1:
		return types.LogInfo
	case 2:
		return types.LogWarning
	default:
		return types.LogDebug
	}
}
