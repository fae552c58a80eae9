package adapter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

const cosmosKeeper = `package keeper

import sdk "github.com/cosmos/cosmos-sdk/types"

type msgServer struct{ Keeper }

func (k msgServer) Deposit(ctx sdk.Context, msg *MsgDeposit) error {
	balance := k.GetBalance(ctx, msg.Sender)
	balance = balance.Add(msg.Amount)
	if balance.IsNegative() {
		return ErrNegative
	}
	k.SetBalance(ctx, msg.Sender, balance)
	return nil
}

func (k *Keeper) GetBalance(ctx sdk.Context, addr string) sdk.Int {
	return k.balances[addr]
}

func validate(amount sdk.Int) bool {
	return !amount.IsNegative()
}

func BeginBlocker(ctx sdk.Context, k Keeper) {}
`

const solidityVault = `pragma solidity ^0.8.0;

contract Vault {
    mapping(address => uint256) balances;

    function deposit() external payable {
        balances[msg.sender] += msg.value;
    }

    function _credit(address to, uint256 amount) internal {
        if (amount > 0) { balances[to] += amount; }
    }

    receive() external payable {}
}

interface IVault {
    function deposit() external payable;
}
`

const cosmwasmContract = `use cosmwasm_std::{DepsMut, Env, MessageInfo, Response, StdResult};

#[cfg_attr(not(feature = "library"), entry_point)]
pub fn execute(deps: DepsMut, env: Env, info: MessageInfo, msg: ExecuteMsg) -> StdResult<Response> {
    match msg {
        ExecuteMsg::Deposit {} => deposit(deps, info),
    }
}

fn deposit(deps: DepsMut, info: MessageInfo) -> StdResult<Response> {
    let f = |x: u32| { x + 1 };
    // a stray } in a comment
    let s = "also } in a string";
    Ok(Response::new())
}

pub(crate) fn helper() -> u32 {
    1
}

pub fn query_balance(deps: Deps) -> StdResult<u128> {
    Ok(0)
}
`

const cairoContract = `#[starknet::contract]
mod vault {
    #[storage]
    struct Storage {
        balance: u256,
    }

    #[constructor]
    fn constructor(ref self: ContractState, initial: u256) {
        self.balance.write(initial);
    }

    #[abi(embed_v0)]
    impl VaultImpl of super::IVault<ContractState> {
        fn deposit(ref self: ContractState, amount: u256) {
            let current = self.balance.read();
            self.balance.write(current + amount);
        }
    }

    #[generate_trait]
    impl InternalImpl of InternalTrait {
        fn credit(ref self: ContractState, amount: u256) {
            self.balance.write(amount);
        }
    }

    #[external(v0)]
    fn withdraw(ref self: ContractState, amount: u256) {
        self.credit(amount);
    }
}
`

const pytealApp = `from pyteal import *

router = Router("vault")


@router.method
def deposit(payment: abi.PaymentTransaction) -> Expr:
    return Seq(
        App.globalPut(Bytes("total"), App.globalGet(Bytes("total")) + payment.get().amount()),
    )


@Subroutine(TealType.uint64)
def credit(amount: Expr) -> Expr:
    return amount + Int(1)


def approval_program():
    return router.build_program()[0]


def _helper():
    return Int(0)
`

type unitSummary struct {
	ID   string
	Name string
	Kind m.EntryKind
}

func summarize(units []m.CodeUnit) []unitSummary {
	out := make([]unitSummary, 0, len(units))
	for _, u := range units {
		out = append(out, unitSummary{ID: u.ID, Name: u.Name, Kind: u.Kind})
	}

	return out
}

func extract(t *testing.T, path string, eco m.Ecosystem, content string) []m.CodeUnit {
	t.Helper()

	extractor := NewLocalUnitExtractor(NewLocalGoFileAdapter())
	source := m.Source{
		Origin:    &m.File{FullPath: m.Path(path), ShortPath: m.Path(path)},
		Ecosystem: eco,
	}

	units, err := extractor.Extract(context.Background(), source, []byte(content))
	require.NoError(t, err)

	return units
}

func TestLocalUnitExtractor_Cosmos(t *testing.T) {
	units := extract(t, "x/vault/keeper/msg_server.go", m.EcosystemCosmos, cosmosKeeper)

	assert.Equal(t, []unitSummary{
		{ID: "x/vault/keeper/msg_server.go::msgServer.Deposit", Name: "Deposit", Kind: m.KindEntrypoint},
		{ID: "x/vault/keeper/msg_server.go::Keeper.GetBalance", Name: "GetBalance", Kind: m.KindPublic},
		{ID: "x/vault/keeper/msg_server.go::validate", Name: "validate", Kind: m.KindInternal},
		{ID: "x/vault/keeper/msg_server.go::BeginBlocker", Name: "BeginBlocker", Kind: m.KindEntrypoint},
	}, summarize(units))

	deposit := units[0]
	assert.Equal(t, 7, deposit.Line)
	assert.Equal(t, 15, deposit.EndLine)
	assert.True(t, strings.HasPrefix(deposit.Text, "func (k msgServer) Deposit("))
	assert.True(t, strings.HasSuffix(deposit.Text, "return nil\n}"))
	assert.Equal(t, m.EcosystemCosmos, deposit.Ecosystem)
	assert.Equal(t, "x/vault/keeper/msg_server.go:7", deposit.Location())
}

func TestLocalUnitExtractor_Solidity(t *testing.T) {
	units := extract(t, "contracts/Vault.sol", m.EcosystemSolidity, solidityVault)

	assert.Equal(t, []unitSummary{
		{ID: "contracts/Vault.sol::deposit", Name: "deposit", Kind: m.KindExternal},
		{ID: "contracts/Vault.sol::_credit", Name: "_credit", Kind: m.KindInternal},
		{ID: "contracts/Vault.sol::receive", Name: "receive", Kind: m.KindExternal},
	}, summarize(units))

	assert.Equal(t, 6, units[0].Line)
	assert.Equal(t, 8, units[0].EndLine)
	assert.Equal(t, "function _credit(address to, uint256 amount) internal {\n        if (amount > 0) { balances[to] += amount; }\n    }", units[1].Text)
	assert.Equal(t, "receive() external payable {}", units[2].Text)
}

func TestLocalUnitExtractor_CosmWasm(t *testing.T) {
	units := extract(t, "src/contract.rs", m.EcosystemCosmWasm, cosmwasmContract)

	assert.Equal(t, []unitSummary{
		{ID: "src/contract.rs::execute", Name: "execute", Kind: m.KindEntrypoint},
		{ID: "src/contract.rs::deposit", Name: "deposit", Kind: m.KindPrivate},
		{ID: "src/contract.rs::helper", Name: "helper", Kind: m.KindInternal},
		{ID: "src/contract.rs::query_balance", Name: "query_balance", Kind: m.KindPublic},
	}, summarize(units))

	assert.True(t, strings.HasSuffix(units[1].Text, "Ok(Response::new())\n}"))
}

func TestLocalUnitExtractor_Cairo(t *testing.T) {
	units := extract(t, "src/lib.cairo", m.EcosystemCairo, cairoContract)

	assert.Equal(t, []unitSummary{
		{ID: "src/lib.cairo::constructor", Name: "constructor", Kind: m.KindInternal},
		{ID: "src/lib.cairo::deposit", Name: "deposit", Kind: m.KindExternal},
		{ID: "src/lib.cairo::credit", Name: "credit", Kind: m.KindInternal},
		{ID: "src/lib.cairo::withdraw", Name: "withdraw", Kind: m.KindExternal},
	}, summarize(units))
}

func TestLocalUnitExtractor_PyTeal(t *testing.T) {
	units := extract(t, "app/approval.py", m.EcosystemPyTeal, pytealApp)

	assert.Equal(t, []unitSummary{
		{ID: "app/approval.py::deposit", Name: "deposit", Kind: m.KindExternal},
		{ID: "app/approval.py::credit", Name: "credit", Kind: m.KindInternal},
		{ID: "app/approval.py::approval_program", Name: "approval_program", Kind: m.KindEntrypoint},
		{ID: "app/approval.py::_helper", Name: "_helper", Kind: m.KindPrivate},
	}, summarize(units))

	assert.Equal(t, 7, units[0].Line)
	assert.Equal(t, 10, units[0].EndLine)
	assert.True(t, strings.HasSuffix(units[0].Text, "\n    )"))
	assert.Equal(t, "def _helper():\n    return Int(0)", units[3].Text)
}

func TestLocalUnitExtractor_Errors(t *testing.T) {
	extractor := NewLocalUnitExtractor(NewLocalGoFileAdapter())
	origin := &m.File{FullPath: "a.x", ShortPath: "a.x"}

	t.Run("unknown ecosystem", func(t *testing.T) {
		_, err := extractor.Extract(context.Background(), m.Source{Origin: origin, Ecosystem: "move"}, nil)
		require.ErrorIs(t, err, m.ErrUnknownEcosystem)
	})

	t.Run("missing origin", func(t *testing.T) {
		_, err := extractor.Extract(context.Background(), m.Source{Ecosystem: m.EcosystemCosmos}, nil)
		require.Error(t, err)
	})

	t.Run("invalid go", func(t *testing.T) {
		_, err := extractor.Extract(context.Background(), m.Source{Origin: origin, Ecosystem: m.EcosystemCosmos}, []byte("package x\nfunc"))
		require.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := extractor.Extract(ctx, m.Source{Origin: origin, Ecosystem: m.EcosystemSolidity}, nil)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSplitMerged(t *testing.T) {
	merged := strings.Join([]string{
		"preamble text",
		"// File: contracts/Vault.sol",
		"contract Vault { function a() public {} }",
		"# File: app/approval.py",
		"def approval_program():",
		"    return 1",
		"// File: README.md",
		"docs",
		"",
	}, "\n")

	t.Run("inferred ecosystems", func(t *testing.T) {
		sources := SplitMerged("merged.txt", []byte(merged), "")
		require.Len(t, sources, 2)

		assert.Equal(t, m.Path("contracts/Vault.sol"), sources[0].Origin.ShortPath)
		assert.Equal(t, m.EcosystemSolidity, sources[0].Ecosystem)
		assert.Equal(t, "contract Vault { function a() public {} }\n", string(sources[0].Content))

		assert.Equal(t, m.Path("app/approval.py"), sources[1].Origin.ShortPath)
		assert.Equal(t, m.EcosystemPyTeal, sources[1].Ecosystem)
		assert.Equal(t, "def approval_program():\n    return 1\n", string(sources[1].Content))
	})

	t.Run("forced ecosystem keeps every section", func(t *testing.T) {
		sources := SplitMerged("merged.txt", []byte(merged), m.EcosystemCosmos)
		require.Len(t, sources, 4)

		assert.Equal(t, m.Path("merged.txt"), sources[0].Origin.ShortPath)
		for _, s := range sources {
			assert.Equal(t, m.EcosystemCosmos, s.Ecosystem)
		}
	})

	t.Run("no markers", func(t *testing.T) {
		assert.Empty(t, SplitMerged("merged.txt", []byte("just text\n"), ""))
	})
}

func TestLocalUnitExtractor_QuotedBraces(t *testing.T) {
	t.Run("rust char literals and lifetimes", func(t *testing.T) {
		const src = `fn trim<'a>(input: &'a str) -> &'a str {
    let close = '}';
    let s: &'a str = input.strip_suffix(close).unwrap_or(input);
    s
}

fn after() -> u32 {
    2
}
`
		units := extract(t, "src/trim.rs", m.EcosystemCosmWasm, src)
		require.Len(t, units, 2)

		assert.True(t, strings.HasSuffix(units[0].Text, "    s\n}"))
		assert.Equal(t, 5, units[0].EndLine)
		assert.Equal(t, "after", units[1].Name)
	})

	t.Run("solidity single-quoted strings", func(t *testing.T) {
		const src = `contract Tags {
    function close() public pure returns (string memory) {
        return '}';
    }

    function open() public pure returns (string memory) {
        return "{";
    }
}
`
		units := extract(t, "contracts/Tags.sol", m.EcosystemSolidity, src)
		require.Len(t, units, 2)

		assert.Equal(t, "function close() public pure returns (string memory) {\n        return '}';\n    }", units[0].Text)
		assert.Equal(t, "open", units[1].Name)
	})
}

func TestMatchClosing(t *testing.T) {
	tests := []struct {
		name string
		eco  m.Ecosystem
		text string
		open int
		want int
	}{
		{name: "brace", eco: m.EcosystemCosmos, text: "{ a { b } }c", open: 0, want: 11},
		{name: "paren", eco: m.EcosystemPyTeal, text: "If(Int(0), x)y", open: 2, want: 13},
		{name: "rune literal", eco: m.EcosystemCosmWasm, text: "{ '}' }", open: 0, want: 7},
		{name: "escaped rune", eco: m.EcosystemCosmos, text: `{ '\'' }`, open: 0, want: 8},
		{name: "lifetime", eco: m.EcosystemCosmWasm, text: "{ &'a x }", open: 0, want: 9},
		{name: "single-quoted string", eco: m.EcosystemSolidity, text: "{ '}}' }", open: 0, want: 8},
		{name: "hash comment", eco: m.EcosystemPyTeal, text: "(a # )\n)", open: 0, want: 8},
		{name: "line comment", eco: m.EcosystemCairo, text: "{ // }\n}", open: 0, want: 8},
		{name: "unbalanced", eco: m.EcosystemCosmos, text: "{ {", open: 0, want: 3},
		{name: "not an opener", eco: m.EcosystemCosmos, text: "x{}", open: 0, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchClosing(tt.eco, tt.text, tt.open))
		})
	}
}
