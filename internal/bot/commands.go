package bot

import "github.com/bwmarrin/discordgo"

var (
	manageMessages int64 = discordgo.PermissionManageMessages
	dmDisabled           = false
)

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "censor",
			Description: "Preview how automod censors a text",
			DescriptionLocalizations: &map[discordgo.Locale]string{
				discordgo.French:    "Apercu de la censure d'un texte",
				discordgo.EnglishUS: "Preview how automod censors a text",
				discordgo.SpanishES: "Vista previa de la censura de un texto",
			},
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "text to check",
					DescriptionLocalizations: map[discordgo.Locale]string{
						discordgo.French:    "texte a verifier",
						discordgo.EnglishUS: "text to check",
						discordgo.SpanishES: "texto a verificar",
					},
					Required: true,
				},
			},
		},
		{
			Name:                     "strikes",
			Description:              "Show active strikes of a member",
			DefaultMemberPermissions: &manageMessages,
			DMPermission:             &dmDisabled,
			DescriptionLocalizations: &map[discordgo.Locale]string{
				discordgo.French:    "Afficher les avertissements actifs d'un membre",
				discordgo.EnglishUS: "Show active strikes of a member",
				discordgo.SpanishES: "Mostrar advertencias activas de un miembro",
			},
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "member to look up",
					DescriptionLocalizations: map[discordgo.Locale]string{
						discordgo.French:    "membre a consulter",
						discordgo.EnglishUS: "member to look up",
						discordgo.SpanishES: "miembro a consultar",
					},
					Required: false,
				},
			},
		},
		{
			Name:                     "report",
			Description:              "Summarize automod activity",
			DefaultMemberPermissions: &manageMessages,
			DMPermission:             &dmDisabled,
			DescriptionLocalizations: &map[discordgo.Locale]string{
				discordgo.French:    "Resume de l'activite automod",
				discordgo.EnglishUS: "Summarize automod activity",
				discordgo.SpanishES: "Resumen de la actividad automod",
			},
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "days",
					Description: "days to include (default 7)",
					DescriptionLocalizations: map[discordgo.Locale]string{
						discordgo.French:    "jours a inclure (7 par defaut)",
						discordgo.EnglishUS: "days to include (default 7)",
						discordgo.SpanishES: "dias a incluir (7 por defecto)",
					},
					Required: false,
				},
			},
		},
	}
}

func (b *Bot) registerCommands() error {
	commands := commandDefinitions()

	appID := b.session.State.User.ID
	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}

	for _, guild := range b.session.State.Guilds {
		if guild == nil {
			continue
		}
		guildCmds, err := b.session.ApplicationCommands(appID, guild.ID)
		if err != nil {
			continue
		}
		for _, cmd := range guildCmds {
			if _, ok := desired[cmd.Name]; ok {
				continue
			}
			_ = b.session.ApplicationCommandDelete(appID, guild.ID, cmd.ID)
		}
	}
	return nil
}
