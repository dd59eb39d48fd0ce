// Package lipsync converts synthesised speech audio into per-frame facial
// animation weights for a 3D avatar.
//
// Two paths produce the same style of output. The [Processor] runs online: it
// consumes decoded PCM samples and derives mouth shapes from volume and
// frequency heuristics every analysis window. The [Track] blender runs from
// precomputed, timestamped viseme sequences (e.g., built from the synthesis
// service's character alignment data) and is preferred whenever timing data
// exists.
//
// Both paths emit sparse [WeightSet] values keyed by facial-control names;
// every value is guaranteed to lie in [0,1].
package lipsync

// Viseme is a visual mouth-shape category corresponding to one or more
// speech sounds. The fifteen categories follow the common Oculus lip-sync
// set: silence, nine consonant classes, and five vowel classes.
type Viseme int

const (
	VisemeSil Viseme = iota // silence
	VisemePP                // p, b, m (bilabial)
	VisemeFF                // f, v (labiodental)
	VisemeTH                // th (dental)
	VisemeDD                // t, d (alveolar)
	VisemeKK                // k, g (velar)
	VisemeCH                // ch, j, sh (postalveolar)
	VisemeSS                // s, z (sibilant)
	VisemeNN                // n, l (nasal/lateral)
	VisemeRR                // r (rhotic)
	VisemeAA                // a as in "father"
	VisemeE                 // e as in "bed"
	VisemeIH                // i as in "sit"
	VisemeOH                // o as in "go"
	VisemeOU                // u as in "boot"
)

// String returns the short viseme name used in control identifiers.
func (v Viseme) String() string {
	switch v {
	case VisemeSil:
		return "sil"
	case VisemePP:
		return "PP"
	case VisemeFF:
		return "FF"
	case VisemeTH:
		return "TH"
	case VisemeDD:
		return "DD"
	case VisemeKK:
		return "KK"
	case VisemeCH:
		return "CH"
	case VisemeSS:
		return "SS"
	case VisemeNN:
		return "NN"
	case VisemeRR:
		return "RR"
	case VisemeAA:
		return "aa"
	case VisemeE:
		return "E"
	case VisemeIH:
		return "ih"
	case VisemeOH:
		return "oh"
	case VisemeOU:
		return "ou"
	default:
		return "sil"
	}
}

// Facial-control identifiers consumed by the external renderer. The naming
// follows the ARKit blendshape convention.
const (
	CtrlJawOpen             = "jawOpen"
	CtrlMouthClose          = "mouthClose"
	CtrlMouthFunnel         = "mouthFunnel"
	CtrlMouthPucker         = "mouthPucker"
	CtrlMouthSmileLeft      = "mouthSmileLeft"
	CtrlMouthSmileRight     = "mouthSmileRight"
	CtrlMouthStretchLeft    = "mouthStretchLeft"
	CtrlMouthStretchRight   = "mouthStretchRight"
	CtrlMouthPressLeft      = "mouthPressLeft"
	CtrlMouthPressRight     = "mouthPressRight"
	CtrlMouthLowerDownLeft  = "mouthLowerDownLeft"
	CtrlMouthLowerDownRight = "mouthLowerDownRight"
	CtrlTongueOut           = "tongueOut"
)

// indicator returns the per-category renderer indicator control name,
// e.g. "viseme_aa".
func indicator(v Viseme) string {
	return "viseme_" + v.String()
}

// visemeTargets is the static Viseme → WeightSet table. Process-wide,
// immutable, read-only at runtime; safe to share without synchronisation.
// Callers must clone entries before mutating (see [TargetWeights]).
var visemeTargets = map[Viseme]WeightSet{
	VisemeSil: {},
	VisemePP: {
		CtrlMouthClose:      0.8,
		CtrlMouthPucker:     0.3,
		CtrlMouthPressLeft:  0.4,
		CtrlMouthPressRight: 0.4,
	},
	VisemeFF: {
		CtrlMouthFunnel:         0.5,
		CtrlMouthLowerDownLeft:  0.2,
		CtrlMouthLowerDownRight: 0.2,
		CtrlJawOpen:             0.1,
	},
	VisemeTH: {
		CtrlMouthFunnel: 0.3,
		CtrlTongueOut:   0.4,
		CtrlJawOpen:     0.15,
	},
	VisemeDD: {
		CtrlJawOpen:           0.2,
		CtrlMouthStretchLeft:  0.15,
		CtrlMouthStretchRight: 0.15,
	},
	VisemeKK: {
		CtrlJawOpen:           0.25,
		CtrlMouthStretchLeft:  0.2,
		CtrlMouthStretchRight: 0.2,
	},
	VisemeCH: {
		CtrlMouthFunnel: 0.4,
		CtrlMouthPucker: 0.3,
		CtrlJawOpen:     0.15,
	},
	VisemeSS: {
		CtrlMouthStretchLeft:  0.3,
		CtrlMouthStretchRight: 0.3,
		CtrlJawOpen:           0.1,
	},
	VisemeNN: {
		CtrlJawOpen:    0.15,
		CtrlMouthClose: 0.3,
	},
	VisemeRR: {
		CtrlMouthPucker: 0.4,
		CtrlMouthFunnel: 0.2,
		CtrlJawOpen:     0.15,
	},
	VisemeAA: {
		CtrlJawOpen:           0.6,
		CtrlMouthStretchLeft:  0.2,
		CtrlMouthStretchRight: 0.2,
	},
	VisemeE: {
		CtrlJawOpen:         0.3,
		CtrlMouthSmileLeft:  0.3,
		CtrlMouthSmileRight: 0.3,
	},
	VisemeIH: {
		CtrlJawOpen:         0.2,
		CtrlMouthSmileLeft:  0.4,
		CtrlMouthSmileRight: 0.4,
	},
	VisemeOH: {
		CtrlJawOpen:     0.4,
		CtrlMouthFunnel: 0.5,
		CtrlMouthPucker: 0.3,
	},
	VisemeOU: {
		CtrlJawOpen:     0.25,
		CtrlMouthPucker: 0.6,
		CtrlMouthFunnel: 0.4,
	},
}

// TargetWeights returns a mutable copy of v's static target WeightSet,
// including the viseme indicator control at full activation.
func TargetWeights(v Viseme) WeightSet {
	base := visemeTargets[v]
	out := make(WeightSet, len(base)+1)
	for k, val := range base {
		out[k] = val
	}
	out[indicator(v)] = 1
	return out
}

// Silence returns the pure-silence WeightSet: only the sil indicator active.
func Silence() WeightSet {
	return WeightSet{indicator(VisemeSil): 1}
}

// charVisemes maps lowercase characters and digraphs to visemes. Used by the
// text and alignment track builders. Consonants without a category of their
// own map to the nearest shape.
var charVisemes = map[string]Viseme{
	"p": VisemePP, "b": VisemePP, "m": VisemePP,
	"f": VisemeFF, "v": VisemeFF,
	"th": VisemeTH,
	"t": VisemeDD, "d": VisemeDD,
	"k": VisemeKK, "g": VisemeKK, "c": VisemeKK, "q": VisemeKK, "x": VisemeKK,
	"ch": VisemeCH, "sh": VisemeCH, "j": VisemeCH,
	"s": VisemeSS, "z": VisemeSS,
	"n": VisemeNN, "l": VisemeNN,
	"r": VisemeRR,
	"a": VisemeAA,
	"e": VisemeE,
	"i": VisemeIH, "y": VisemeIH,
	"o": VisemeOH,
	"u": VisemeOU, "w": VisemeOU,
	"h": VisemeAA,
}
