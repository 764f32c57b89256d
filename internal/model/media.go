package model

// Platform identifies the social network a URL belongs to
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
)

// DisplayName returns the human readable platform name
func (p Platform) DisplayName() string {
	switch p {
	case PlatformYouTube:
		return "YouTube"
	case PlatformInstagram:
		return "Instagram"
	case PlatformFacebook:
		return "Facebook"
	default:
		return "Unknown"
	}
}

// IDPrefix returns the short tag used in job identities
func (p Platform) IDPrefix() string {
	switch p {
	case PlatformYouTube:
		return "yt"
	case PlatformInstagram:
		return "ig"
	case PlatformFacebook:
		return "fb"
	default:
		return "job"
	}
}

// Format is the requested artifact kind
type Format string

const (
	FormatVideo Format = "video"
	FormatAudio Format = "audio"
)

// Ext returns the artifact file extension for the format
func (f Format) Ext() string {
	if f == FormatAudio {
		return "mp3"
	}
	return "mp4"
}

// Quality is a YouTube video quality tier
type Quality string

const (
	QualityHighest Quality = "highest"
	Quality720p    Quality = "720p"
	Quality480p    Quality = "480p"
	Quality360p    Quality = "360p"
)
