// Package sshkey registers the SSH key tools, including the confirm-gated
// private key reveal.
package sshkey

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const (
	confirmGenerate = "CONFIRM_SSH_KEY_GENERATE"
	confirmReveal   = "REVEAL_SSH_PRIVATE_KEY"
	confirmDelete   = "CONFIRM_SSH_KEY_DELETE"
)

// Register adds the SSH key tools.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "ssh_key_list",
			Description: "List the organization's SSH keys. Private keys are masked.",
			Category:    tool.CategoryServer,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				keys, err := svc.Credentials.ListSSHKeys(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				masked := make([]domain.SSHKeyMasked, 0, len(keys))
				for _, k := range keys {
					masked = append(masked, k.Masked())
				}
				return models.OK("ssh keys listed", masked), nil
			},
		},
		&tool.Def{
			Name:             "ssh_key_generate",
			Description:      "Generate a new ed25519 SSH key pair and store it.",
			Category:         tool.CategoryServer,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"name":    tool.String("Key display name."),
				"confirm": tool.String("Must be exactly " + confirmGenerate + ".").Literal(confirmGenerate),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				if svc.KeyGenerator == nil {
					return models.Fail("Key generation is not configured", models.ErrCodeBadRequest), nil
				}
				pub, priv, err := svc.KeyGenerator.GenerateKeyPair(ctx)
				if err != nil {
					return nil, err
				}
				k, err := svc.Credentials.CreateSSHKey(ctx, &domain.SSHKey{
					OrganizationID: tc.OrganizationID,
					Name:           args.String("name"),
					PublicKey:      pub,
					PrivateKey:     priv,
				})
				if err != nil {
					return nil, err
				}
				return models.OK("ssh key generated", k.Masked()), nil
			},
		},
		&tool.Def{
			Name: "ssh_key_reveal",
			Description: "Return the plaintext private key of a stored SSH key. " +
				"High risk; requires explicit confirmation and approval.",
			Category:         tool.CategoryServer,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"sshKeyId": tool.String("Key to reveal."),
				"confirm":  tool.String("Must be exactly " + confirmReveal + ".").Literal(confirmReveal),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				k, res := ownedKey(ctx, svc, tc, args.String("sshKeyId"))
				if res != nil {
					return res, nil
				}
				return models.OK("private key revealed", map[string]string{
					"sshKeyId":   k.SSHKeyID,
					"publicKey":  k.PublicKey,
					"privateKey": k.PrivateKey,
				}), nil
			},
		},
		&tool.Def{
			Name:             "ssh_key_delete",
			Description:      "Delete an SSH key. Servers using it become unreachable.",
			Category:         tool.CategoryServer,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"sshKeyId": tool.String("Key to delete."),
				"confirm":  tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				k, res := ownedKey(ctx, svc, tc, args.String("sshKeyId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Credentials.DeleteSSHKey(ctx, k.SSHKeyID); err != nil {
					return nil, err
				}
				return models.OK("ssh key deleted", map[string]string{"sshKeyId": k.SSHKeyID}), nil
			},
		},
	)
}

func ownedKey(ctx context.Context, svc *domain.Services, tc tool.Context, id string) (*domain.SSHKey, *models.ToolResult) {
	k, err := svc.Credentials.GetSSHKey(ctx, id)
	if err != nil {
		return nil, guard.NotFoundResult(err, "SSH key")
	}
	if res := guard.CheckOrg(k.OrganizationID, tc); res != nil {
		return nil, res
	}
	return k, nil
}
