package naomi

// Genre classifies a game, using the numbering from the XML game lists.
type Genre int

const (
	GenreAction Genre = iota + 1
	GenreShooter
	GenreFighter
	GenreSports
	GenreDriving
	GenrePuzzle
	GenreMahjong
	GenreGun
	GenreMusic
	GenreOther
)

func (g Genre) String() string {
	switch g {
	case GenreAction:
		return "Action"
	case GenreShooter:
		return "Shooter"
	case GenreFighter:
		return "Fighter"
	case GenreSports:
		return "Sports"
	case GenreDriving:
		return "Driving"
	case GenrePuzzle:
		return "Puzzle"
	case GenreMahjong:
		return "Mahjong"
	case GenreGun:
		return "Gun"
	case GenreMusic:
		return "Music"
	case GenreOther:
		return "Other"
	default:
		return "Unknown"
	}
}
