package enums

type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

func (m MediaType) Valid() bool {
	switch m {
	case MediaTypeMovie, MediaTypeTV:
		return true
	}
	return false
}
