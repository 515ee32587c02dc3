package game

import (
	"fmt"

	"github.com/tolelom/arcadechain/core"
)

// Battle move types.
const (
	moveStart   uint8 = 0
	moveAttack  uint8 = 1
	moveDefend  uint8 = 2
	moveSpecial uint8 = 3
)

const (
	specialProcPercent = 30
	enemyHeavyPercent  = 20
)

func newBattle(r *round) (*core.BattleState, error) {
	b := &core.BattleState{
		PlayerHealth:  100,
		PlayerAttack:  20,
		PlayerDefense: 10,
		PlayerSpeed:   10,
	}
	rolls := []struct {
		tag    string
		base   uint64
		spread uint64
		dst    *uint64
	}{
		{"enemy_hp", 80, 40, &b.EnemyHealth},
		{"enemy_atk", 15, 10, &b.EnemyAttack},
		{"enemy_def", 5, 10, &b.EnemyDefense},
		{"enemy_spd", 5, 10, &b.EnemySpeed},
	}
	for _, roll := range rolls {
		v, err := r.draw(roll.tag, 0, roll.spread)
		if err != nil {
			return nil, err
		}
		*roll.dst = roll.base + v
	}
	return b, nil
}

// damage is attack minus defense, at least 1.
func damage(attack, defense uint64) uint64 {
	if attack <= defense {
		return 1
	}
	return attack - defense
}

func hit(health, dmg uint64) uint64 {
	if dmg >= health {
		return 0
	}
	return health - dmg
}

// resolveBattle: the opening move (moveStart) sets up the fight, each later
// move is one exchange. The faster side strikes first; the player wins ties.
func resolveBattle(r *round, mv core.Move) error {
	if r.sess.Data.Battle == nil {
		if mv.Type != moveStart {
			return fmt.Errorf("%w: battle opens with move %d, got %d", core.ErrValidation, moveStart, mv.Type)
		}
		b, err := newBattle(r)
		if err != nil {
			return err
		}
		r.sess.Data.Battle = b
		return nil
	}
	if mv.Type < moveAttack || mv.Type > moveSpecial {
		return fmt.Errorf("%w: unknown battle move %d", core.ErrValidation, mv.Type)
	}
	b := r.sess.Data.Battle
	b.Turn++
	defending := mv.Type == moveDefend

	if b.EnemySpeed > b.PlayerSpeed {
		if err := enemyStrike(r, b, defending); err != nil {
			return err
		}
		if b.PlayerHealth == 0 {
			r.result(false)
			return nil
		}
		if err := playerStrike(r, b, mv.Type); err != nil {
			return err
		}
		if b.EnemyHealth == 0 {
			r.result(true)
		}
		return nil
	}

	if err := playerStrike(r, b, mv.Type); err != nil {
		return err
	}
	if b.EnemyHealth == 0 {
		r.result(true)
		return nil
	}
	if err := enemyStrike(r, b, defending); err != nil {
		return err
	}
	if b.PlayerHealth == 0 {
		r.result(false)
	}
	return nil
}

func playerStrike(r *round, b *core.BattleState, typ uint8) error {
	switch typ {
	case moveAttack:
		b.EnemyHealth = hit(b.EnemyHealth, damage(b.PlayerAttack, b.EnemyDefense))
	case moveSpecial:
		proc, err := r.draw(fmt.Sprintf("special%d", b.Turn), 0, 99)
		if err != nil {
			return err
		}
		if proc < specialProcPercent {
			b.EnemyHealth = hit(b.EnemyHealth, 2*damage(b.PlayerAttack, b.EnemyDefense))
		}
	}
	return nil
}

// enemyStrike lands the enemy's blow, heavy with enemyHeavyPercent chance and
// halved while the player defends.
func enemyStrike(r *round, b *core.BattleState, defending bool) error {
	roll, err := r.draw(fmt.Sprintf("enemy%d", b.Turn), 0, 99)
	if err != nil {
		return err
	}
	dmg := damage(b.EnemyAttack, b.PlayerDefense)
	if roll < enemyHeavyPercent {
		dmg = dmg * 3 / 2
	}
	if defending {
		dmg /= 2
	}
	b.PlayerHealth = hit(b.PlayerHealth, dmg)
	return nil
}
