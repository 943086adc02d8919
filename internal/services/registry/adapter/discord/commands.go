package discord

import "github.com/bwmarrin/discordgo"

// Slash command names.
const (
	CmdBotStatus         = "bot-status"
	CmdPing              = "ping"
	CmdCommands          = "commands"
	CmdRegisterBusiness  = "register-biz"
	CmdApproveBusiness   = "approve-biz"
	CmdDenyBusiness      = "deny-biz"
	CmdBusinessDirectory = "biz-directory"
	CmdBusinessInfo      = "biz-info"
	CmdAuditBusiness     = "audit-business"
	CmdTerminateBusiness = "business-terminate"
	CmdUpdateBusiness    = "business-update"
	CmdApplyGang         = "gang-apply"
	CmdApproveGang       = "gang-approve"
	CmdDenyGang          = "gang-deny"
	CmdGangList          = "gang-list"
	CmdGangInfo          = "gang-info"
	CmdAuditGang         = "audit-gang"
	CmdDisbandGang       = "gang-disband"
	CmdUpdateGang        = "gang-update"
	CmdCreateContract    = "contract-create"
	CmdViewContract      = "contract-view"
	CmdListContracts     = "contract-list"
	CmdEditContract      = "contract-edit"
	CmdTerminateContract = "contract-terminate"
	CmdBusinessCheck     = "business-check"
)

// Option names shared across commands.
const (
	optID       = "id"
	optName     = "name"
	optReason   = "reason"
	optTarget   = "target"
	optStatus   = "status"
	optBusiness = "business"
	optGang     = "gang"
	optTerms    = "terms"
)

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func idOption(description string) *discordgo.ApplicationCommandOption {
	minID := 1.0
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        optID,
		Description: description,
		Required:    true,
		MinValue:    &minID,
	}
}

func statusOption() *discordgo.ApplicationCommandOption {
	opt := stringOption(optStatus, "New status", false)
	for _, status := range []string{"pending", "approved", "denied"} {
		opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{Name: status, Value: status})
	}
	return opt
}

func command(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Type:        discordgo.ChatApplicationCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

// Commands returns the guild slash-command catalog in display order.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		command(CmdBotStatus, "Check if bot is online"),
		command(CmdPing, "Ping the bot"),
		command(CmdCommands, "List all bot commands"),

		command(CmdRegisterBusiness, "Register a business",
			stringOption(optName, "Business name", true)),
		command(CmdApproveBusiness, "Approve a business by ID",
			idOption("Business ID")),
		command(CmdDenyBusiness, "Deny a business by ID",
			idOption("Business ID"),
			stringOption(optReason, "Reason for denial", true)),
		command(CmdBusinessDirectory, "List all businesses"),
		command(CmdBusinessInfo, "View business info",
			idOption("Business ID")),
		command(CmdAuditBusiness, "Audit a business by ID",
			idOption("Business ID")),
		command(CmdTerminateBusiness, "Terminate a business by ID",
			idOption("Business ID")),
		command(CmdUpdateBusiness, "Update a business by ID or name",
			stringOption(optTarget, "Business ID or name", true),
			stringOption(optName, "New name", false),
			statusOption(),
			stringOption(optReason, "Reason, required when denying", false)),

		command(CmdApplyGang, "Register a gang",
			stringOption(optName, "Gang name", true)),
		command(CmdApproveGang, "Approve a gang by ID",
			idOption("Gang ID")),
		command(CmdDenyGang, "Deny a gang by ID",
			idOption("Gang ID"),
			stringOption(optReason, "Reason for denial", true)),
		command(CmdGangList, "List all gangs"),
		command(CmdGangInfo, "View gang info",
			idOption("Gang ID")),
		command(CmdAuditGang, "Audit a gang by ID",
			idOption("Gang ID")),
		command(CmdDisbandGang, "Disband a gang by ID",
			idOption("Gang ID")),
		command(CmdUpdateGang, "Update a gang by ID or name",
			stringOption(optTarget, "Gang ID or name", true),
			stringOption(optName, "New name", false),
			statusOption(),
			stringOption(optReason, "Reason, required when denying", false)),

		command(CmdCreateContract, "Create a contract",
			stringOption(optBusiness, "Business name", true),
			stringOption(optGang, "Gang name", true),
			stringOption(optTerms, "Contract terms", true)),
		command(CmdViewContract, "View a contract by ID",
			idOption("Contract ID")),
		command(CmdListContracts, "List all contracts"),
		command(CmdEditContract, "Edit a contract by ID",
			idOption("Contract ID"),
			stringOption(optBusiness, "New business name", false),
			stringOption(optGang, "New gang name", false),
			stringOption(optTerms, "New terms", false)),
		command(CmdTerminateContract, "Terminate a contract by ID",
			idOption("Contract ID")),
		command(CmdBusinessCheck, "Look up a business or gang by ID",
			idOption("Business or gang ID")),
	}
}
