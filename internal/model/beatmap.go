package model

import "fmt"

// Beatmap is the subset of map metadata the session core needs: enough to
// override client-provided multiplayer map info and to resolve /np embeds.
type Beatmap struct {
	ID          int32
	SetID       int32
	MD5         string
	Artist      string
	Title       string
	Version     string
	Creator     string
	Mode        uint8
	TotalLength int32 // seconds
	Status      int32
}

// FullName returns "Artist - Title [Version]".
func (b *Beatmap) FullName() string {
	return fmt.Sprintf("%s - %s [%s]", b.Artist, b.Title, b.Version)
}

// Embed returns an osu! chat embed linking to the map.
func (b *Beatmap) Embed(domain string) string {
	return fmt.Sprintf("[https://osu.%s/b/%d %s]", domain, b.ID, b.FullName())
}
