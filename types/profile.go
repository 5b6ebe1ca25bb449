// profile.go defines the Profile enum of hardware decode profiles.

package types

import (
	"fmt"
	"strings"
)

type Profile int

const (
	ProfileNone = Profile(-1)

	// the values are copied from libva's enum VAProfile:
	ProfileMPEG2Simple   = Profile(0)
	ProfileMPEG2Main     = Profile(1)
	ProfileH264Main      = Profile(6)
	ProfileH264High      = Profile(7)
	ProfileVC1Advanced   = Profile(10)
	ProfileH264Baseline  = Profile(13)
	ProfileHEVCMain      = Profile(17)
	ProfileHEVCMain10    = Profile(18)
	ProfileVP9Profile0   = Profile(19)
	ProfileAV1Profile0   = Profile(32)
	endOfProfileSentinel = Profile(33)
)

func (p Profile) String() string {
	switch p {
	case ProfileNone:
		return "none"
	case ProfileMPEG2Simple:
		return "mpeg2_simple"
	case ProfileMPEG2Main:
		return "mpeg2_main"
	case ProfileH264Main:
		return "h264_main"
	case ProfileH264High:
		return "h264_high"
	case ProfileVC1Advanced:
		return "vc1_advanced"
	case ProfileH264Baseline:
		return "h264_baseline"
	case ProfileHEVCMain:
		return "hevc_main"
	case ProfileHEVCMain10:
		return "hevc_main10"
	case ProfileVP9Profile0:
		return "vp9_profile0"
	case ProfileAV1Profile0:
		return "av1_profile0"
	}
	return fmt.Sprintf("unknown_%d", int(p))
}

// IsKnown returns true if the profile has a hardware mapping.
func (p Profile) IsKnown() bool {
	if p < 0 || p >= endOfProfileSentinel {
		return false
	}
	return !strings.HasPrefix(p.String(), "unknown_")
}

func ProfileFromString(s string) (Profile, error) {
	s = strings.Trim(strings.ToLower(s), " \n\r\t")
	for p := ProfileNone; p < endOfProfileSentinel; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return ProfileNone, fmt.Errorf("unknown profile: '%s'", s)
}

// Set implements pflag.Value.
func (p *Profile) Set(s string) error {
	v, err := ProfileFromString(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Type implements pflag.Value.
func (p *Profile) Type() string {
	return "profile"
}
