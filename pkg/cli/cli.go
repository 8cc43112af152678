package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/peterbourgon/ff/ffyaml"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/musewave/musewave/pkg/cmd/album"
	"github.com/musewave/musewave/pkg/cmd/migrate"
	"github.com/musewave/musewave/pkg/cmd/serve"
	"github.com/musewave/musewave/pkg/cmd/song"
	"github.com/musewave/musewave/pkg/cmd/suggest"
)

func New(version, commit, date string) *ffcli.Command {
	fs := flag.NewFlagSet("musewave", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "musewave [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newVersionCommand(version, commit, date),
			newMigrateCommand(),
			newSuggestCommand(),
			newSongCommand(),
			newAlbumCommand(),
			newServeCommand(),
		},
	}
}

func newVersionCommand(version, commit, date string) *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "musewave version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			versionFields := []string{v}
			if commit != "" {
				versionFields = append(versionFields, commit)
			}
			if date != "" {
				versionFields = append(versionFields, date)
			}
			fmt.Println(strings.Join(versionFields, " "))
			return nil
		},
	}
}

func newMigrateCommand() *ffcli.Command {
	cmd := "migrate"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &migrate.Config{}

	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("musewave %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ffyaml.Parser),
			ff.WithEnvVarPrefix("MUSEWAVE"),
		},
		ShortHelp: fmt.Sprintf("musewave %s action", cmd),
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return migrate.Run(ctx, cfg)
		},
	}
}

func newSuggestCommand() *ffcli.Command {
	cmd := "suggest"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &suggest.Config{}

	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Token, "token", "", "text generation api token")
	fs.StringVar(&cfg.Model, "model", "", "text generation model")
	fs.DurationVar(&cfg.Timeout, "timeout", 8*time.Second, "per attempt generation timeout")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.UserID, "user", "", "user identifier for suggestion history")

	fs.StringVar(&cfg.Field, "field", "", "field to suggest (title, music_prompt, genres, lyrics, artist_inspiration, video_style, vocal_languages, duration)")
	fs.StringVar(&cfg.CurrentValue, "current", "", "current field value to improve on")
	fs.StringVar(&cfg.Title, "title", "", "title context")
	fs.StringVar(&cfg.Prompt, "prompt", "", "music prompt context")
	fs.StringVar(&cfg.Genres, "genres", "", "genres context (comma separated)")
	fs.StringVar(&cfg.Languages, "languages", "", "vocal languages context (comma separated)")
	fs.StringVar(&cfg.Lyrics, "lyrics", "", "lyrics context")
	fs.StringVar(&cfg.ArtistInspiration, "artist", "", "artist inspiration context")
	fs.StringVar(&cfg.VideoStyle, "video-style", "", "video style context")
	fs.IntVar(&cfg.Duration, "duration", 0, "duration context in seconds")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("musewave %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ffyaml.Parser),
			ff.WithEnvVarPrefix("MUSEWAVE"),
		},
		ShortHelp: fmt.Sprintf("musewave %s action", cmd),
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return suggest.Run(ctx, cfg)
		},
	}
}

func newSongCommand() *ffcli.Command {
	cmd := "song"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &song.Config{}

	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Token, "token", "", "text generation api token")
	fs.StringVar(&cfg.Model, "model", "", "text generation model")
	fs.DurationVar(&cfg.Timeout, "timeout", 8*time.Second, "per attempt generation timeout")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.UserID, "user", "", "user identifier")
	fs.StringVar(&cfg.Library, "library", "", "csv file extending the audio catalog")

	fs.StringVar(&cfg.Title, "title", "", "song title (suggested when empty)")
	fs.StringVar(&cfg.Prompt, "prompt", "", "music prompt (required)")
	fs.StringVar(&cfg.Genres, "genres", "", "genres (comma separated)")
	fs.StringVar(&cfg.Languages, "languages", "", "vocal languages (comma separated)")
	fs.StringVar(&cfg.Lyrics, "lyrics", "", "lyrics (suggested when empty for vocal tracks)")
	fs.StringVar(&cfg.ArtistInspiration, "artist", "", "artist inspiration")
	fs.StringVar(&cfg.VideoStyle, "video-style", "", "video style")
	fs.IntVar(&cfg.Duration, "duration", 30, "duration in seconds")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("musewave %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ffyaml.Parser),
			ff.WithEnvVarPrefix("MUSEWAVE"),
		},
		ShortHelp: fmt.Sprintf("musewave %s action", cmd),
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return song.Run(ctx, cfg)
		},
	}
}

func newAlbumCommand() *ffcli.Command {
	cmd := "album"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &album.Config{}

	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Token, "token", "", "text generation api token")
	fs.StringVar(&cfg.Model, "model", "", "text generation model")
	fs.DurationVar(&cfg.Timeout, "timeout", 8*time.Second, "per attempt generation timeout")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.UserID, "user", "", "user identifier")
	fs.StringVar(&cfg.Library, "library", "", "csv file extending the audio catalog")

	fs.StringVar(&cfg.Title, "title", "", "album title (suggested when empty)")
	fs.StringVar(&cfg.Prompt, "prompt", "", "album music prompt")
	fs.StringVar(&cfg.Genres, "genres", "", "genres (comma separated)")
	fs.StringVar(&cfg.Languages, "languages", "", "vocal languages (comma separated)")
	fs.StringVar(&cfg.Lyrics, "lyrics", "", "shared lyrics concept")
	fs.StringVar(&cfg.ArtistInspiration, "artist", "", "artist inspiration")
	fs.StringVar(&cfg.VideoStyle, "video-style", "", "video style")
	fs.IntVar(&cfg.NumSongs, "num-songs", 3, "number of tracks to assemble")
	fs.StringVar(&cfg.Tracks, "tracks", "", "yaml file with per-track overrides")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("musewave %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ffyaml.Parser),
			ff.WithEnvVarPrefix("MUSEWAVE"),
		},
		ShortHelp: fmt.Sprintf("musewave %s action", cmd),
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return album.Run(ctx, cfg)
		},
	}
}

func newServeCommand() *ffcli.Command {
	cmd := "serve"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &serve.Config{}

	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Token, "token", "", "text generation api token")
	fs.StringVar(&cfg.Model, "model", "", "text generation model")
	fs.DurationVar(&cfg.Timeout, "timeout", 8*time.Second, "per attempt generation timeout")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.Library, "library", "", "csv file extending the audio catalog")

	fs.StringVar(&cfg.Addr, "addr", ":1337", "address to listen on")
	fsMapVar(fs, &cfg.Credentials, "creds", nil, "credentials to use (semicolon separated) Example: user1:pass1;user2:pass2")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("musewave %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ffyaml.Parser),
			ff.WithEnvVarPrefix("MUSEWAVE"),
		},
		ShortHelp: fmt.Sprintf("musewave %s action", cmd),
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return serve.Serve(ctx, cfg)
		},
	}
}

type mapValue struct {
	v *map[string]string
}

func (m *mapValue) String() string {
	if m.v == nil {
		return ""
	}
	return fmt.Sprintf("%v", map[string]string(*m.v))
}

func (m *mapValue) Set(value string) error {
	if m.v == nil {
		return errors.New("nil map reference")
	}
	pairs := strings.Split(value, ";")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid map entry: %s", pair)
		}
		(*m.v)[parts[0]] = parts[1]
	}
	return nil
}

func fsMapVar(fs *flag.FlagSet, p *map[string]string, name string, value map[string]string, usage string) {
	if value == nil {
		value = make(map[string]string)
	}
	*p = value
	fs.Var(&mapValue{p}, name, usage)
}
